package domain

// KeyPrefix namespaces all Redis keys written by this service.
const KeyPrefix = "pivotlog:"

// Package pivotlog provides an embedded Go client for the pivotlog decision
// archive backed by Redis.
//
// The client wires the decision store and search services directly over the
// database, without going through the HTTP API:
//
//	client, _ := pivotlog.New(ctx,
//	    pivotlog.WithRedis("localhost:6379", ""),
//	    pivotlog.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	client.Decisions().Upsert(ctx, pivotlog.DecisionInput{
//	    Statement: "Migrate to AWS",
//	    Rationale: "Lower latency for EU customers",
//	    Category:  "Technical",
//	})
//
//	hits, _ := client.Search().Hybrid(ctx, "why did we migrate", pivotlog.SearchOptions{})
//	answer, _ := client.Search().Ask(ctx, "why did we migrate?", 5)
//
// Semantic and hybrid search require an Embedder; without one, hybrid search
// degrades to keyword scoring and semantic search returns an error. Ask
// requires an Answerer to synthesize answers; without one it returns the
// matched decisions with an empty answer.
package pivotlog

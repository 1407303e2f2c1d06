// Package knowsphere embeds the KnowSphere insight ranking engine in a Go
// program. It talks to Valkey or Redis directly, with no HTTP server in
// between.
//
//	client, _ := knowsphere.New(ctx,
//	    knowsphere.WithValkey("localhost:6379", ""),
//	    knowsphere.WithEmbedder(myEmbedder),
//	)
//	defer client.Close()
//
//	pub, _ := client.Insights().Publish(ctx, knowsphere.PublishRequest{
//	    AuthorID: "u1",
//	    Title:    "Redis caching patterns",
//	    Body:     "Write-through versus cache-aside ...",
//	})
//	related, _ := client.Insights().Related(ctx, pub.Insight.ID, 10)
//	trending, _ := client.Insights().Trending(ctx, 7, 20)
//
// Tag suggestion works without any provider: when no Tagger is configured
// or it fails, tags come from local keyword extraction.
package knowsphere

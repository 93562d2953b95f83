// Package scholarmatch provides a Go client for the scholarmatch semantic
// matching service.
//
//	client := scholarmatch.New("http://localhost:8080", scholarmatch.WithAPIKey("key"))
//
//	resp, _ := client.Match(ctx, scholarmatch.MatchRequest{
//	    Query:      "graph neural networks",
//	    TargetKind: scholarmatch.KindAcademician,
//	})
//
//	batch, _ := client.Recommend(ctx, scholarmatch.RecommendationRequest{
//	    RequesterID:   "student-42",
//	    RequesterKind: scholarmatch.KindPostgraduate,
//	    CorpusKind:    scholarmatch.KindAcademician,
//	})
package scholarmatch

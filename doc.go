// Package fuzzysuggest is a Go client for typo-tolerant autocomplete over a
// search catalog (Elasticsearch, Redis Search or an in-process memory catalog).
//
// Every query combines two retrieval paths on one namespace: a trigram match
// whose minimum_should_match policy tolerates misspellings in longer input,
// and a fuzzy completion suggester that covers inputs too short for trigrams.
// Match names come first, then suggester names; duplicates are dropped.
//
//	client, _ := fuzzysuggest.New(ctx,
//	    fuzzysuggest.WithElastic([]string{"http://localhost:9200"}, "", ""),
//	    fuzzysuggest.WithNamespace("cities"),
//	)
//	defer client.Close()
//
//	_, _ = client.Provision(ctx)
//	_, _ = client.Ingest(ctx, []string{"Amsterdam", "Rotterdam"})
//	res, _ := client.Suggest(ctx, "amstrdam")
//	fmt.Println(res.Names) // [Amsterdam]
//
// Typing UIs should query through a Session so that a slow answer for an old
// keystroke never replaces the answer for a newer one:
//
//	s := client.NewSession()
//	defer s.Close()
//	res, err := s.Suggest(ctx, input)
//	if errors.Is(err, fuzzysuggest.ErrSuperseded) {
//	    // a newer keystroke is in flight
//	}
package fuzzysuggest

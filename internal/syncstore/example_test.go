package syncstore_test

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/ieltsmaster/studyplan/internal/store"
	"github.com/ieltsmaster/studyplan/internal/syncstore"
)

func ExampleSyncer_Save() {
	kv := store.NewMemory()
	defer kv.Close()

	s := syncstore.New(kv, syncstore.DefaultOptions(), log.New(io.Discard, "", 0))
	ctx := context.Background()

	region, err := s.Save(ctx, []byte(`{"vocabulary":[{"name":"YouGlish","url":"https://youglish.com"}]}`))
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Println("updated", region)

	_, err = s.Save(ctx, []byte(`{"foo":"bar"}`))
	fmt.Println("client error:", syncstore.IsClientError(err))

	regions, _ := s.LoadRegions(ctx)
	hub, _ := regions.Hub()
	fmt.Println(hub.Vocabulary[0].Name, len(hub.Reading))
	// Output:
	// updated resourceHub
	// client error: true
	// YouGlish 0
}

func ExampleClassify() {
	for _, body := range []string{
		`{"2025-01-01":{"tasks":[]}}`,
		`{"speaking":[]}`,
		`{"chillZone":{"seriesList":[]}}`,
		`{"theme":"dark"}`,
	} {
		c, _ := syncstore.Classify([]byte(body))
		fmt.Println(c.Region, c.Keys())
	}
	// Output:
	// planner [2025-01-01]
	// resourceHub [speaking]
	// chillZone [seriesList]
	// unrecognized []
}

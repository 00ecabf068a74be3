package watch

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExamineAll(t *testing.T) {
	var pages []Page
	for i := 0; i < 20; i++ {
		pages = append(pages, Page{
			URI:         fmt.Sprintf("http://example.com/%d", i),
			ContentType: "text/html",
			Content:     fmt.Sprintf("<title>page %d</title>", i),
		})
	}
	pages[3].ContentType = "text/plain"

	infos, err := ExamineAll(context.Background(), pages, 4)
	require.NoError(t, err)
	require.Len(t, infos, len(pages))
	for i, info := range infos {
		if i == 3 {
			require.Nil(t, info)
			continue
		}
		require.NotNil(t, info)
		require.Equal(t, fmt.Sprintf("page %d", i), info.Title)
	}
}

func TestExamineAll_Error(t *testing.T) {
	pages := []Page{
		{URI: "http://example.com/ok", ContentType: "text/html", Content: "<p>ok</p>"},
		{URI: "http://example.com/bad", ContentType: "text/html", Content: "<p>bad</p>", Rules: IgnoreRules{Expr: "name =="}},
	}
	_, err := ExamineAll(context.Background(), pages, 0)
	require.ErrorContains(t, err, "examine http://example.com/bad")
}

func TestExamineAll_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ExamineAll(ctx, []Page{{ContentType: "text/html", Content: "<p>x</p>"}}, 1)
	require.ErrorIs(t, err, context.Canceled)
}

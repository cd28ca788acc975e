package statusbar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tOgg1/devtime/internal/testutil"
)

func TestTmuxWidget_AgainstRealServer(t *testing.T) {
	client := testutil.NewTmuxServer(t)
	ctx := context.Background()

	before, err := client.ShowOption(ctx, "status-right")
	require.NoError(t, err)

	widget := NewTmuxWidget(client, TmuxOptions{Option: "devtime_it", StatusRight: true})
	require.NoError(t, widget.Setup(ctx))

	status, err := client.ShowOption(ctx, "status-right")
	require.NoError(t, err)
	require.Equal(t, "#{@devtime_it} "+before, status)

	item := Item{Text: "Dev Time ⏱: 1h 2m ◉◉◉◉○", Tooltip: "Focus: High"}
	require.NoError(t, widget.SetItem(ctx, item))

	text, err := client.ShowOption(ctx, "@devtime_it")
	require.NoError(t, err)
	require.Equal(t, item.Text, text)

	tooltip, err := client.ShowOption(ctx, "@devtime_it_tooltip")
	require.NoError(t, err)
	require.Equal(t, item.Tooltip, tooltip)

	require.NoError(t, widget.Close(ctx))

	text, err = client.ShowOption(ctx, "@devtime_it")
	require.NoError(t, err)
	require.Empty(t, text)

	status, err = client.ShowOption(ctx, "status-right")
	require.NoError(t, err)
	require.Equal(t, before, status)
}

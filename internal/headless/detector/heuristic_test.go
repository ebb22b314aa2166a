package detector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pricewatch/pricewatch/internal/fetcher"
)

func resp(status int, body string) fetcher.PageResponse {
	return fetcher.PageResponse{StatusCode: status, Body: []byte(body)}
}

func TestShouldPromoteSPAMarkers(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(0)
	padding := strings.Repeat("content ", 1024)

	require.True(t, h.ShouldPromote(resp(200, `<html><div id="root"></div>`+padding+`</html>`)))
	require.True(t, h.ShouldPromote(resp(200, `<html><div data-reactroot>`+padding+`</div></html>`)))
	require.False(t, h.ShouldPromote(resp(200, `<html><body>`+padding+`</body></html>`)))
}

func TestShouldPromoteEmptyBody(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(0)
	require.True(t, h.ShouldPromote(resp(200, "")))
}

func TestShouldPromoteScriptHeavyShortPage(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(0)
	body := `<html><script>window.load()</script><p>x</p></html>`
	require.True(t, h.ShouldPromote(resp(200, body)))
}

func TestShouldNotPromoteNonOKOrRendered(t *testing.T) {
	t.Parallel()

	h := NewHeuristic(0)
	require.False(t, h.ShouldPromote(resp(404, "")))
	require.False(t, h.ShouldPromote(fetcher.PageResponse{
		StatusCode:   200,
		Body:         nil,
		UsedHeadless: true,
	}))
}

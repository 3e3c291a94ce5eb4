package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/cta"
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/realtime/types"
	workqueuetypes "github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type publishRequest struct {
	Method string `json:"method"`
	Params struct {
		Channel string                 `json:"channel"`
		Data    map[string]interface{} `json:"data"`
	} `json:"params"`
}

func fakeCentrifugo(t *testing.T, status int) (*[]publishRequest, func()) {
	t.Helper()

	var mu sync.Mutex
	received := []publishRequest{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "apikey secret", r.Header.Get("Authorization"))

		var req publishRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		mu.Lock()
		received = append(received, req)
		mu.Unlock()

		w.WriteHeader(status)
	}))

	prev := centrifugoConfig
	Init(context.Background(), &types.Config{Address: srv.URL, APIKey: "secret", DisableReplay: true})

	return &received, func() {
		srv.Close()
		centrifugoConfig = prev
	}
}

func TestSendBundleUpdated(t *testing.T) {
	received, done := fakeCentrifugo(t, http.StatusOK)
	defer done()

	b := workqueuetypes.ActionBundle{
		BundleID:   "GEO_EXPORT:SHARE_LINK_GOVERNANCE:none:STORE_WIDE:proj-1",
		ProjectID:  "proj-1",
		BundleType: workqueuetypes.BundleTypeGeoExport,
		ScopeType:  workqueuetypes.ScopeTypeStoreWide,
		State:      workqueuetypes.BundleStateNew,
	}
	e := types.BundleUpdatedEvent{
		ProjectID:  "proj-1",
		Bundle:     b,
		Resolution: cta.Resolve(b, workqueuetypes.ViewerCapabilities{}, "proj-1"),
	}

	err := SendEvent(context.Background(), types.Recipient{UserIDs: []string{"u1", "u2"}}, e)
	require.NoError(t, err)

	require.Len(t, *received, 2)
	assert.Equal(t, "publish", (*received)[0].Method)
	assert.Equal(t, "proj-1#u1", (*received)[0].Params.Channel)
	assert.Equal(t, "proj-1#u2", (*received)[1].Params.Channel)

	data := (*received)[0].Params.Data
	assert.Equal(t, "bundle-updated", data["eventType"])
	resolution, ok := data["resolution"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "View Export Options", resolution["primaryCta"])
	assert.Equal(t, "/projects/proj-1/insights/geo-insights", resolution["route"])
}

func TestSendEventIgnoresDeliveryFailure(t *testing.T) {
	received, done := fakeCentrifugo(t, http.StatusInternalServerError)
	defer done()

	err := SendEvent(context.Background(), types.Recipient{UserIDs: []string{"u1"}}, types.WorkQueueResolvedEvent{ProjectID: "proj-1"})
	assert.NoError(t, err)
	assert.Len(t, *received, 1)
	assert.Equal(t, []interface{}{}, (*received)[0].Params.Data["resolutions"])
}

func TestPing(t *testing.T) {
	received, done := fakeCentrifugo(t, http.StatusOK)
	defer done()

	require.NoError(t, Ping(context.Background()))
	require.Len(t, *received, 1)
	assert.Equal(t, "info", (*received)[0].Method)
}

package slack

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/slack/types"
	"github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func approvalRequested() types.ApprovalRequested {
	return types.ApprovalRequested{
		ID:               "n1",
		CreatedAt:        time.Now(),
		ProjectID:        "proj-1",
		BundleID:         "AUTOMATION_RUN:FIX_MISSING_METADATA:missing_seo_title:PAGES:proj-1",
		ActionKey:        "FIX_MISSING_METADATA",
		ScopeType:        "PAGES",
		ScopeCount:       2,
		DraftCount:       2,
		RequestedByName:  "Ed",
		RequestedByEmail: "ed@example.com",
		OwnerEmails:      []string{"olive@example.com"},
		URL:              "https://app.engineo.ai/projects/proj-1/automation/playbooks?playbookId=missing_seo_title",
	}
}

func TestApprovalRequestedBlocks(t *testing.T) {
	blocks := BuildBlocks(approvalRequested())
	require.Len(t, blocks, 2)

	header, ok := blocks[0].(slack.SectionBlock)
	require.True(t, ok)
	assert.Equal(t, "*EngineO Approval Requested* by Ed (ed@example.com)", header.Text.Text)

	fields, ok := blocks[1].(slack.SectionBlock)
	require.True(t, ok)
	require.Len(t, fields.Fields, 6)
	assert.Equal(t, "*Scope:* 2 pages", fields.Fields[1].Text)
	assert.Equal(t, "*Approvers:* olive@example.com", fields.Fields[4].Text)
	assert.Contains(t, fields.Fields[5].Text, "|Review drafts>")
}

func TestApprovalRequestedAnonymous(t *testing.T) {
	e := approvalRequested()
	e.RequestedByName, e.RequestedByEmail, e.OwnerEmails, e.URL = "", "", nil, ""

	assert.Equal(t, "*EngineO Approval Requested* by a project member", e.GetHeader().Text)
	assert.Len(t, e.GetTextBlockObjects(), 4)
}

func TestSendNotificationToSlack(t *testing.T) {
	var channel, text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		channel = r.FormValue("channel")
		text = r.FormValue("text")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C123","ts":"1700000000.000100"}`))
	}))
	defer srv.Close()

	Init("xoxb-test", "#approvals", slack.OptionAPIURL(srv.URL+"/"))
	defer Init("", "")

	require.NoError(t, SendNotificationToSlack(approvalRequested()))
	assert.Equal(t, "#approvals", channel)
	assert.Contains(t, text, "Approval requested for AUTOMATION_RUN")
}

func TestSendNotificationUnconfigured(t *testing.T) {
	Init("", "")
	assert.NoError(t, SendNotificationToSlack(approvalRequested()))
	assert.NoError(t, SendNotificationToSlack(nil))
}

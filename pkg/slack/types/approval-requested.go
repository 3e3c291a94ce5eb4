package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

// ApprovalRequested tells project owners that drafts are waiting for their sign-off.
type ApprovalRequested struct {
	ID        string
	CreatedAt time.Time

	ProjectID  string
	BundleID   string
	ActionKey  string
	ScopeType  string
	ScopeCount int
	DraftCount int

	RequestedByName  string
	RequestedByEmail string

	OwnerEmails []string

	// URL is an absolute link to the bundle's work queue route.
	URL string
}

func (e ApprovalRequested) GetID() string {
	return e.ID
}

func (e ApprovalRequested) GetCreatedAt() time.Time {
	return e.CreatedAt
}

func (e ApprovalRequested) GetHeader() *slack.TextBlockObject {
	requester := e.RequestedByName
	if requester == "" {
		requester = "a project member"
	}
	if e.RequestedByEmail != "" {
		requester = fmt.Sprintf("%s (%s)", requester, e.RequestedByEmail)
	}
	return slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*EngineO Approval Requested* by %s", requester), false, false)
}

func (e ApprovalRequested) GetTextBlockObjects() []*slack.TextBlockObject {
	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Action:* %s", e.ActionKey), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Scope:* %d %s", e.ScopeCount, strings.ToLower(e.ScopeType)), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Drafts:* %d", e.DraftCount), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Project:* %s", e.ProjectID), false, false),
	}
	if len(e.OwnerEmails) > 0 {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Approvers:* %s", strings.Join(e.OwnerEmails, ", ")), false, false))
	}
	if e.URL != "" {
		fields = append(fields, slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("<%s|Review drafts>", e.URL), false, false))
	}
	return fields
}

func (e ApprovalRequested) GetMessageOptions() []slack.MsgOption {
	return []slack.MsgOption{
		slack.MsgOptionText(fmt.Sprintf("Approval requested for %s", e.BundleID), false),
	}
}

var _ SlackNotification = (*ApprovalRequested)(nil)

package cta

// Labels shown on work queue CTAs.
const (
	LabelViewDetails       = "View Details"
	LabelViewExportOptions = "View Export Options"
	LabelGenerateDrafts    = "Generate Drafts"
	LabelGenerateFull      = "Generate Full Drafts"
	LabelViewIssues        = "View Issues"
	LabelViewPreview       = "View Preview"
	LabelRequestApproval   = "Request Approval"
	LabelViewDrafts        = "View Drafts"
	LabelApplyChanges      = "Apply Changes"
	LabelApproveAndApply   = "Approve & Apply"
	LabelReject            = "Reject"
	LabelViewResults       = "View Results"
	LabelRetry             = "Retry"
	LabelViewError         = "View Error"
)

// Advisory text shown next to a disabled or downgraded CTA.
const (
	ReasonMissingScope         = "Scope unavailable: this automation needs page or collection handles before it can run"
	ReasonCannotGenerateDrafts = "Your role can't generate drafts. Ask an editor or owner."
	ReasonCannotApply          = "Your role can't apply changes. Ask a project owner."
	ReasonApprovalRequired     = "Approval required before apply"
	ReasonAwaitingApproval     = "Awaiting owner approval"
	ReasonBlocked              = "Action blocked - drafts may be expired"
)

const (
	defaultPlaybookID = "missing_seo_title"

	pageHandleMarker       = "page_handle:"
	collectionHandleMarker = "collection_handle:"
)

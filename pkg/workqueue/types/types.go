package types

import (
	"time"
)

type BundleType string

const (
	BundleTypeAssetOptimization BundleType = "ASSET_OPTIMIZATION"
	BundleTypeAutomationRun     BundleType = "AUTOMATION_RUN"
	BundleTypeGeoExport         BundleType = "GEO_EXPORT"
)

func AllBundleTypes() []BundleType {
	return []BundleType{
		BundleTypeAssetOptimization,
		BundleTypeAutomationRun,
		BundleTypeGeoExport,
	}
}

type ScopeType string

const (
	ScopeTypeProducts    ScopeType = "PRODUCTS"
	ScopeTypePages       ScopeType = "PAGES"
	ScopeTypeCollections ScopeType = "COLLECTIONS"
	ScopeTypeStoreWide   ScopeType = "STORE_WIDE"
)

func AllScopeTypes() []ScopeType {
	return []ScopeType{
		ScopeTypeProducts,
		ScopeTypePages,
		ScopeTypeCollections,
		ScopeTypeStoreWide,
	}
}

// IsHandleScoped reports whether assets of this scope are addressed by handle.
func (s ScopeType) IsHandleScoped() bool {
	return s == ScopeTypePages || s == ScopeTypeCollections
}

type BundleState string

const (
	BundleStateNew             BundleState = "NEW"
	BundleStatePreviewed       BundleState = "PREVIEWED"
	BundleStateDraftsReady     BundleState = "DRAFTS_READY"
	BundleStatePendingApproval BundleState = "PENDING_APPROVAL"
	BundleStateApproved        BundleState = "APPROVED"
	BundleStateApplied         BundleState = "APPLIED"
	BundleStateFailed          BundleState = "FAILED"
	BundleStateBlocked         BundleState = "BLOCKED"
)

func AllBundleStates() []BundleState {
	return []BundleState{
		BundleStateNew,
		BundleStatePreviewed,
		BundleStateDraftsReady,
		BundleStatePendingApproval,
		BundleStateApproved,
		BundleStateApplied,
		BundleStateFailed,
		BundleStateBlocked,
	}
}

type ApprovalStatus string

const (
	ApprovalStatusNotRequested ApprovalStatus = "NOT_REQUESTED"
	ApprovalStatusPending      ApprovalStatus = "PENDING"
	ApprovalStatusApproved     ApprovalStatus = "APPROVED"
	ApprovalStatusRejected     ApprovalStatus = "REJECTED"
)

type RecommendedActionKey string

const (
	ActionKeyFixMissingMetadata     RecommendedActionKey = "FIX_MISSING_METADATA"
	ActionKeyResolveTechnicalIssues RecommendedActionKey = "RESOLVE_TECHNICAL_ISSUES"
	ActionKeyImproveSearchIntent    RecommendedActionKey = "IMPROVE_SEARCH_INTENT"
	ActionKeyOptimizeContent        RecommendedActionKey = "OPTIMIZE_CONTENT"
	ActionKeyShareLinkGovernance    RecommendedActionKey = "SHARE_LINK_GOVERNANCE"
)

func AllRecommendedActionKeys() []RecommendedActionKey {
	return []RecommendedActionKey{
		ActionKeyFixMissingMetadata,
		ActionKeyResolveTechnicalIssues,
		ActionKeyImproveSearchIntent,
		ActionKeyOptimizeContent,
		ActionKeyShareLinkGovernance,
	}
}

type Approval struct {
	ApprovalRequired bool           `json:"approvalRequired" yaml:"approvalRequired"`
	ApprovalStatus   ApprovalStatus `json:"approvalStatus" yaml:"approvalStatus"`
	RequestedBy      *string        `json:"requestedBy,omitempty" yaml:"requestedBy,omitempty"`
	ApprovedBy       *string        `json:"approvedBy,omitempty" yaml:"approvedBy,omitempty"`
}

// BundleTarget is the structured form of what bundleId encodes positionally.
// When a backend delivers it, it wins over parsing the id.
type BundleTarget struct {
	PlaybookID string    `json:"playbookId" yaml:"playbookId"`
	AssetType  ScopeType `json:"assetType" yaml:"assetType"`
	ScopeRefs  []string  `json:"scopeRefs,omitempty" yaml:"scopeRefs,omitempty"`
}

type BundleHealth string

const (
	BundleHealthCritical       BundleHealth = "CRITICAL"
	BundleHealthNeedsAttention BundleHealth = "NEEDS_ATTENTION"
	BundleHealthHealthy        BundleHealth = "HEALTHY"
)

type AIUsage struct {
	EstimatedRuns int `json:"estimatedRuns" yaml:"estimatedRuns"`
	ReusedDrafts  int `json:"reusedDrafts" yaml:"reusedDrafts"`
}

type DraftSummary struct {
	Status    string     `json:"status" yaml:"status"`
	Count     int        `json:"count" yaml:"count"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty" yaml:"expiresAt,omitempty"`
}

type GeoExportSummary struct {
	MutationFreeView bool   `json:"mutationFreeView" yaml:"mutationFreeView"`
	ShareLinkStatus  string `json:"shareLinkStatus" yaml:"shareLinkStatus"`
	PassCount        int    `json:"passCount" yaml:"passCount"`
	IssueCount       int    `json:"issueCount" yaml:"issueCount"`
}

type ActionBundle struct {
	BundleID             string               `json:"bundleId" yaml:"bundleId"`
	ProjectID            string               `json:"projectId,omitempty" yaml:"projectId,omitempty"`
	BundleType           BundleType           `json:"bundleType" yaml:"bundleType"`
	ScopeType            ScopeType            `json:"scopeType" yaml:"scopeType"`
	ScopeCount           int                  `json:"scopeCount" yaml:"scopeCount"`
	ScopeQueryRef        *string              `json:"scopeQueryRef,omitempty" yaml:"scopeQueryRef,omitempty"`
	State                BundleState          `json:"state" yaml:"state"`
	Approval             *Approval            `json:"approval,omitempty" yaml:"approval,omitempty"`
	RecommendedActionKey RecommendedActionKey `json:"recommendedActionKey" yaml:"recommendedActionKey"`
	Target               *BundleTarget        `json:"target,omitempty" yaml:"target,omitempty"`

	Health    BundleHealth      `json:"health,omitempty" yaml:"health,omitempty"`
	AIUsage   *AIUsage          `json:"aiUsage,omitempty" yaml:"aiUsage,omitempty"`
	Draft     *DraftSummary     `json:"draft,omitempty" yaml:"draft,omitempty"`
	GeoExport *GeoExportSummary `json:"geoExport,omitempty" yaml:"geoExport,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"-"`
}

type ViewerCapabilities struct {
	CanApply           bool `json:"canApply" yaml:"canApply"`
	CanApprove         bool `json:"canApprove" yaml:"canApprove"`
	CanGenerateDrafts  bool `json:"canGenerateDrafts" yaml:"canGenerateDrafts"`
	CanRequestApproval bool `json:"canRequestApproval" yaml:"canRequestApproval"`
}

type MemberRole string

const (
	MemberRoleOwner  MemberRole = "OWNER"
	MemberRoleEditor MemberRole = "EDITOR"
	MemberRoleViewer MemberRole = "VIEWER"
)

type ProjectMember struct {
	ProjectID string     `json:"projectId"`
	UserID    string     `json:"userId"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      MemberRole `json:"role"`
}

// AssetMetadata is the subset of a synced store asset that drafts read and write.
type AssetMetadata struct {
	ProjectID      string    `json:"projectId" yaml:"projectId"`
	AssetType      ScopeType `json:"assetType" yaml:"assetType"`
	Handle         string    `json:"handle" yaml:"handle"`
	Title          string    `json:"title" yaml:"title"`
	SEOTitle       string    `json:"seoTitle" yaml:"seoTitle"`
	SEODescription string    `json:"seoDescription" yaml:"seoDescription"`
}

type DraftField string

const (
	DraftFieldSEOTitle       DraftField = "seo_title"
	DraftFieldSEODescription DraftField = "seo_description"
)

type Draft struct {
	ID            string     `json:"id"`
	BundleID      string     `json:"bundleId"`
	AssetType     ScopeType  `json:"assetType"`
	AssetHandle   string     `json:"assetHandle"`
	Field         DraftField `json:"field"`
	CurrentValue  string     `json:"currentValue"`
	ProposedValue string     `json:"proposedValue"`
	CreatedAt     time.Time  `json:"createdAt"`
	AppliedAt     *time.Time `json:"appliedAt,omitempty"`
}

// Value returns the asset's current value for a draftable field.
func (a AssetMetadata) Value(field DraftField) string {
	switch field {
	case DraftFieldSEOTitle:
		return a.SEOTitle
	case DraftFieldSEODescription:
		return a.SEODescription
	}
	return ""
}

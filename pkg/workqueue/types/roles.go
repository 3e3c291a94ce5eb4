package types

// CapabilitiesForRole maps a project membership role onto what the viewer may do
// from the work queue. Unknown roles get nothing.
func CapabilitiesForRole(role MemberRole) ViewerCapabilities {
	switch role {
	case MemberRoleOwner:
		return ViewerCapabilities{
			CanApply:           true,
			CanApprove:         true,
			CanGenerateDrafts:  true,
			CanRequestApproval: true,
		}
	case MemberRoleEditor:
		return ViewerCapabilities{
			CanGenerateDrafts:  true,
			CanRequestApproval: true,
		}
	default:
		return ViewerCapabilities{}
	}
}

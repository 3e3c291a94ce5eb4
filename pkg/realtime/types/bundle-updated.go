package types

import (
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/cta"
	workqueuetypes "github.com/narasimhan-me/SEOEngine.io-sub014/pkg/workqueue/types"
)

var _ Event = BundleUpdatedEvent{}

// BundleUpdatedEvent carries a bundle and the CTAs resolved for the user the
// event is addressed to. Each project member gets their own copy.
type BundleUpdatedEvent struct {
	ProjectID  string                      `json:"projectId"`
	Bundle     workqueuetypes.ActionBundle `json:"bundle"`
	Resolution cta.Resolution              `json:"resolution"`
}

func (e BundleUpdatedEvent) GetMessageData() (map[string]interface{}, error) {
	return map[string]interface{}{
		"eventType":  "bundle-updated",
		"projectId":  e.ProjectID,
		"bundle":     e.Bundle,
		"resolution": e.Resolution,
	}, nil
}

func (e BundleUpdatedEvent) GetChannelName() string {
	return e.ProjectID
}

package types

import (
	"github.com/narasimhan-me/SEOEngine.io-sub014/pkg/cta"
)

var _ Event = WorkQueueResolvedEvent{}

type WorkQueueResolvedEvent struct {
	ProjectID   string           `json:"projectId"`
	Resolutions []cta.Resolution `json:"resolutions"`
}

func (e WorkQueueResolvedEvent) GetMessageData() (map[string]interface{}, error) {
	resolutions := e.Resolutions
	if resolutions == nil {
		resolutions = []cta.Resolution{}
	}
	return map[string]interface{}{
		"eventType":   "work-queue-resolved",
		"projectId":   e.ProjectID,
		"resolutions": resolutions,
	}, nil
}

func (e WorkQueueResolvedEvent) GetChannelName() string {
	return e.ProjectID
}

package listener

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	ChannelResolveWorkQueue = "resolve_work_queue"
	ChannelGenerateDrafts   = "generate_drafts"
	ChannelRequestApproval  = "request_approval"
	ChannelReviewApproval   = "review_approval"
	ChannelApplyBundle      = "apply_bundle"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type resolveWorkQueuePayload struct {
	ProjectID string `json:"projectId"`
	UserID    string `json:"userId"`
}

// BundlePayload is the body of every bundle-mutating channel.
type BundlePayload struct {
	BundleID string `json:"bundleId"`
	UserID   string `json:"userId"`
	Decision string `json:"decision,omitempty"`
}

var errMalformedPayload = errors.New("malformed payload")

func parseBundlePayload(payload string) (BundlePayload, error) {
	var p BundlePayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return p, fmt.Errorf("%w: %v", errMalformedPayload, err)
	}
	if p.BundleID == "" || p.UserID == "" {
		return p, fmt.Errorf("%w: bundleId and userId are required", errMalformedPayload)
	}
	return p, nil
}

func parseResolvePayload(payload string) (resolveWorkQueuePayload, error) {
	var p resolveWorkQueuePayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return p, fmt.Errorf("%w: %v", errMalformedPayload, err)
	}
	if p.ProjectID == "" || p.UserID == "" {
		return p, fmt.Errorf("%w: projectId and userId are required", errMalformedPayload)
	}
	return p, nil
}

// bundleLockKeyExtractor serializes all work on one bundle.
func bundleLockKeyExtractor(payload []byte) (string, error) {
	var payloadMap map[string]interface{}
	if err := json.Unmarshal(payload, &payloadMap); err != nil {
		return "", fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	bundleID, ok := payloadMap["bundleId"].(string)
	if !ok || bundleID == "" {
		return "", fmt.Errorf("bundleId not found in payload or is not a string: %v", payloadMap)
	}
	return bundleID, nil
}

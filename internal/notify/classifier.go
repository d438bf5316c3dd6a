package notify

import (
	"notifier/internal/models"
)

// Classify turns an update-check response into an UpdateDecision.
//
// The server's state is trusted verbatim; no local version comparison takes
// place. The boolean is false when nothing should be presented: no
// newer_version block, a disabled state, or a state this client does not
// recognise.
func Classify(payload *models.UpdateCheckPayload, versions models.AppVersions) (*models.UpdateDecision, bool) {
	if payload == nil || payload.NewerVersion == nil {
		return nil, false
	}
	nv := payload.NewerVersion

	urgency, known := models.ParseUrgency(nv.State)
	if !known || urgency == models.UrgencyDisabled {
		return nil, false
	}

	decision := &models.UpdateDecision{
		Urgency:         urgency,
		VersionID:       nv.LastID,
		Version:         nv.Version,
		Link:            nv.Link,
		Title:           nv.Translate.Title,
		Message:         nv.Translate.Message,
		PositiveLabel:   nv.Translate.PositiveBtn,
		CurrentVersion:  versions.Effective(),
		PreviousVersion: versions.PreviousOrEffective(),
	}
	if urgency == models.UrgencyRemind {
		decision.DismissLabel = nv.Translate.NegativeBtn
	}

	return decision, true
}

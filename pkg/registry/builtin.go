// pkg/registry/builtin.go
package registry

// Builtin returns the registry entries for the shipped reminder workers. The
// on-disk registry file, when present, takes precedence; this is the fallback
// used by the updater tool when bootstrapping a fresh deployment.
func Builtin() *ActivityRegistry {
	return &ActivityRegistry{
		Version: "1.0.0",
		Activities: []Activity{
			{
				ID:                   "scan-reminder-candidates",
				DisplayName:          "Scan Reminder Candidates",
				Description:          "Walks every tracked submission and returns the reminders due right now, including first-contact candidates for customers never messaged.",
				Category:             "reminders",
				Version:              "1.0.0",
				TaskType:             "scan-reminder-candidates",
				ImplementationStatus: "completed",
				InputSchema:          map[string]interface{}{"type": "object"},
				OutputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"candidates": map[string]interface{}{"type": "array"},
						"count":      map[string]interface{}{"type": "integer"},
						"scannedAt":  map[string]interface{}{"type": "string", "format": "date-time"},
					},
				},
				ErrorCodes: []string{"SCAN_FAILED", "QUERY_EXECUTION_FAILED"},
				Timeout:    "60s",
				Retries:    2,
				Workflows:  []string{"reminder-escalation"},
				Tags:       []string{"reminders", "scan"},
			},
			{
				ID:                   "send-reminder",
				DisplayName:          "Send Reminder",
				Description:          "Delivers one reminder immediately: renders the level template, sends through the messaging gateway and advances the submission state.",
				Category:             "reminders",
				Version:              "1.0.0",
				TaskType:             "send-reminder",
				ImplementationStatus: "completed",
				InputSchema: map[string]interface{}{
					"type":     "object",
					"required": []interface{}{"phone", "formType", "level"},
					"properties": map[string]interface{}{
						"phone":    map[string]interface{}{"type": "string", "minLength": 1},
						"formType": map[string]interface{}{"type": "string", "minLength": 1},
						"level":    map[string]interface{}{"type": "string"},
					},
				},
				OutputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"status": map[string]interface{}{"type": "string", "enum": []interface{}{"sent", "skipped"}},
						"level":  map[string]interface{}{"type": "string"},
						"sentAt": map[string]interface{}{"type": "string", "format": "date-time"},
					},
				},
				ErrorCodes: []string{"GATEWAY_SEND_FAILED", "STATE_CONFLICT", "CUSTOMER_NOT_FOUND", "FORM_TYPE_NOT_FOUND", "LINK_PROVISIONING_FAILED"},
				Timeout:    "30s",
				Retries:    1,
				Workflows:  []string{"reminder-escalation"},
				Tags:       []string{"reminders", "messaging"},
			},
			{
				ID:                   "dispatch-reminder-batch",
				DisplayName:          "Dispatch Reminder Batch",
				Description:          "Runs a rate-limited sequential batch over explicit recipients or the current scan, with inter-send delays and periodic cooldowns.",
				Category:             "reminders",
				Version:              "1.0.0",
				TaskType:             "dispatch-reminder-batch",
				ImplementationStatus: "completed",
				InputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"recipients": map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type":     "object",
								"required": []interface{}{"phone", "formType", "level"},
								"properties": map[string]interface{}{
									"phone":    map[string]interface{}{"type": "string", "minLength": 1},
									"formType": map[string]interface{}{"type": "string", "minLength": 1},
									"level":    map[string]interface{}{"type": "string"},
								},
							},
						},
					},
				},
				OutputSchema: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"runId":           map[string]interface{}{"type": "string"},
						"outcome":         map[string]interface{}{"type": "string", "enum": []interface{}{"success", "success_with_errors"}},
						"totalSent":       map[string]interface{}{"type": "integer"},
						"totalFailed":     map[string]interface{}{"type": "integer"},
						"durationSeconds": map[string]interface{}{"type": "number"},
						"errors":          map[string]interface{}{"type": "array"},
					},
				},
				ErrorCodes: []string{"BATCH_VALIDATION_FAILED", "DISPATCH_LEASE_HELD", "GATEWAY_SEND_FAILED"},
				Timeout:    "8h",
				Retries:    0,
				Workflows:  []string{"reminder-escalation", "manual-batch"},
				Tags:       []string{"reminders", "batch", "rate-limit"},
			},
		},
	}
}

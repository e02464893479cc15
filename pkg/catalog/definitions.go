package catalog

import "github.com/dukex/propflow/pkg/models"

// Built-in subtypes.
const (
	// Triggers.
	SubtypeNewLead            = "new_lead"
	SubtypeSchedule           = "schedule"
	SubtypeWebhook            = "webhook"
	SubtypeTenantMessage      = "tenant_message"
	SubtypeMaintenanceRequest = "maintenance_request"
	SubtypeVoiceNote          = "voice_note"

	// Actions.
	SubtypeSendEmail       = "send_email"
	SubtypeSendSMS         = "send_sms"
	SubtypeCreateTask      = "create_task"
	SubtypeUpdateLead      = "update_lead"
	SubtypeAssignAgent     = "assign_agent"
	SubtypeTranscribeAudio = "transcribe_audio"

	// Logic.
	SubtypeCondition = "condition"
	SubtypeDelay     = "delay"
	SubtypeSplit     = "split"

	// Integrations.
	SubtypeHTTPRequest    = "http_request"
	SubtypeSlackMessage   = "slack_message"
	SubtypeGoogleCalendar = "google_calendar"
)

const (
	colorTrigger     = "#10b981"
	colorAction      = "#3b82f6"
	colorLogic       = "#f59e0b"
	colorIntegration = "#8b5cf6"
)

func objectSchema(description string, properties map[string]any) map[string]any {
	return map[string]any{
		"type":        "object",
		"description": description,
		"properties":  properties,
	}
}

func stringProp(description string) map[string]any {
	return map[string]any{"type": "string", "description": description}
}

func enumProp(description string, values ...string) map[string]any {
	return map[string]any{"type": "string", "description": description, "enum": values}
}

func builtinDefinitions() []Definition {
	return []Definition{
		// Triggers
		{
			Category:    models.CategoryTypeTrigger,
			Subtype:     SubtypeNewLead,
			Label:       "New Lead",
			Description: "Fires when a lead is captured",
			Icon:        "user-plus",
			Color:       colorTrigger,
			Schema: objectSchema("New lead trigger configuration", map[string]any{
				"source": enumProp("Lead source to listen to", "any", "website", "phone", "email", "walk_in", "referral"),
			}),
		},
		{
			Category:    models.CategoryTypeTrigger,
			Subtype:     SubtypeSchedule,
			Label:       "Schedule",
			Description: "Fires on a cron schedule",
			Icon:        "calendar",
			Color:       colorTrigger,
			Schema: objectSchema("Schedule trigger configuration", map[string]any{
				"cron": map[string]any{
					"type":        "string",
					"description": "Standard 5-field cron expression (minute hour day month weekday)",
					"examples":    []string{"0 9 1 * *", "*/15 * * * *"},
				},
				"timezone": map[string]any{
					"type":        "string",
					"description": "IANA timezone the expression is evaluated in",
					"examples":    []string{"UTC", "America/New_York"},
				},
			}),
		},
		{
			Category:    models.CategoryTypeTrigger,
			Subtype:     SubtypeWebhook,
			Label:       "Webhook",
			Description: "Fires when an HTTP request hits the workflow endpoint",
			Icon:        "link",
			Color:       colorTrigger,
			Schema: objectSchema("Webhook trigger configuration", map[string]any{
				"path":   map[string]any{"type": "string", "description": "Endpoint path", "pattern": "^/"},
				"secret": stringProp("Shared secret expected in the X-Signature header"),
			}),
		},
		{
			Category:    models.CategoryTypeTrigger,
			Subtype:     SubtypeTenantMessage,
			Label:       "Tenant Message",
			Description: "Fires when a tenant sends a message",
			Icon:        "message-circle",
			Color:       colorTrigger,
			Schema: objectSchema("Tenant message trigger configuration", map[string]any{
				"channel": enumProp("Channel the message arrives on", "any", "sms", "email", "portal"),
			}),
		},
		{
			Category:    models.CategoryTypeTrigger,
			Subtype:     SubtypeMaintenanceRequest,
			Label:       "Maintenance Request",
			Description: "Fires when a maintenance request is submitted",
			Icon:        "tool",
			Color:       colorTrigger,
			Schema: objectSchema("Maintenance request trigger configuration", map[string]any{
				"priority": enumProp("Only fire for this priority", "any", "low", "normal", "urgent"),
			}),
		},
		{
			Category:    models.CategoryTypeTrigger,
			Subtype:     SubtypeVoiceNote,
			Label:       "Voice Note",
			Description: "Fires when an agent records a voice note",
			Icon:        "mic",
			Color:       colorTrigger,
			Schema: objectSchema("Voice note trigger configuration", map[string]any{
				"minDurationSeconds": map[string]any{"type": "integer", "minimum": 0},
			}),
		},

		// Actions
		{
			Category:    models.CategoryTypeAction,
			Subtype:     SubtypeSendEmail,
			Label:       "Send Email",
			Description: "Sends an email",
			Icon:        "mail",
			Color:       colorAction,
			Schema: objectSchema("Email configuration", map[string]any{
				"to":      stringProp("Recipient address or template expression"),
				"subject": stringProp("Subject line"),
				"body":    stringProp("Message body"),
			}),
		},
		{
			Category:    models.CategoryTypeAction,
			Subtype:     SubtypeSendSMS,
			Label:       "Send SMS",
			Description: "Sends a text message",
			Icon:        "message-square",
			Color:       colorAction,
			Schema: objectSchema("SMS configuration", map[string]any{
				"to":      stringProp("Recipient phone number or template expression"),
				"message": map[string]any{"type": "string", "maxLength": 1600},
			}),
		},
		{
			Category:    models.CategoryTypeAction,
			Subtype:     SubtypeCreateTask,
			Label:       "Create Task",
			Description: "Creates a task for the team",
			Icon:        "check-square",
			Color:       colorAction,
			Schema: objectSchema("Task configuration", map[string]any{
				"title":     stringProp("Task title"),
				"assignee":  stringProp("Team or agent the task is assigned to"),
				"dueInDays": map[string]any{"type": "integer", "minimum": 0},
			}),
		},
		{
			Category:    models.CategoryTypeAction,
			Subtype:     SubtypeUpdateLead,
			Label:       "Update Lead",
			Description: "Changes the lead status or appends a note",
			Icon:        "edit",
			Color:       colorAction,
			Schema: objectSchema("Lead update configuration", map[string]any{
				"status": enumProp("New lead status", "new", "contacted", "qualified", "showing_scheduled", "lost"),
				"note":   stringProp("Note appended to the lead"),
			}),
		},
		{
			Category:    models.CategoryTypeAction,
			Subtype:     SubtypeAssignAgent,
			Label:       "Assign Agent",
			Description: "Assigns the lead to an agent",
			Icon:        "user-check",
			Color:       colorAction,
			Schema: objectSchema("Assignment configuration", map[string]any{
				"strategy": enumProp("Assignment strategy", "round_robin", "least_busy", "specific"),
				"agentId":  stringProp("Agent used by the specific strategy"),
			}),
		},
		{
			Category:    models.CategoryTypeAction,
			Subtype:     SubtypeTranscribeAudio,
			Label:       "Transcribe Audio",
			Description: "Turns a voice note into text",
			Icon:        "file-text",
			Color:       colorAction,
			Schema: objectSchema("Transcription configuration", map[string]any{
				"language": map[string]any{"type": "string", "pattern": "^[a-z]{2}(-[A-Z]{2})?$"},
			}),
		},

		// Logic
		{
			Category:    models.CategoryTypeLogic,
			Subtype:     SubtypeCondition,
			Label:       "Condition",
			Description: "Branches on a field value",
			Icon:        "git-branch",
			Color:       colorLogic,
			Schema: objectSchema("Condition configuration", map[string]any{
				"field":    stringProp("Field path evaluated by the condition"),
				"operator": enumProp("Comparison operator", "equals", "not_equals", "contains", "greater_than", "less_than", "exists"),
				"value":    stringProp("Value compared against"),
			}),
		},
		{
			Category:    models.CategoryTypeLogic,
			Subtype:     SubtypeDelay,
			Label:       "Delay",
			Description: "Waits before continuing",
			Icon:        "clock",
			Color:       colorLogic,
			Schema: objectSchema("Delay configuration", map[string]any{
				"amount": map[string]any{"type": "integer", "minimum": 1},
				"unit":   enumProp("Time unit", "minutes", "hours", "days"),
			}),
		},
		{
			Category:    models.CategoryTypeLogic,
			Subtype:     SubtypeSplit,
			Label:       "Split",
			Description: "Sends the flow down several branches",
			Icon:        "shuffle",
			Color:       colorLogic,
			Schema: objectSchema("Split configuration", map[string]any{
				"branches": map[string]any{"type": "integer", "minimum": 2, "maximum": 5},
			}),
		},

		// Integrations
		{
			Category:    models.CategoryTypeIntegration,
			Subtype:     SubtypeHTTPRequest,
			Label:       "HTTP Request",
			Description: "Calls an external HTTP endpoint",
			Icon:        "globe",
			Color:       colorIntegration,
			Schema: objectSchema("HTTP request configuration", map[string]any{
				"method":  enumProp("HTTP method", "GET", "POST", "PUT", "PATCH", "DELETE"),
				"url":     map[string]any{"type": "string", "pattern": "^https?://"},
				"headers": map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}},
				"body":    stringProp("Request body"),
			}),
		},
		{
			Category:    models.CategoryTypeIntegration,
			Subtype:     SubtypeSlackMessage,
			Label:       "Slack Message",
			Description: "Posts to a Slack channel",
			Icon:        "slack",
			Color:       colorIntegration,
			Schema: objectSchema("Slack configuration", map[string]any{
				"channel": map[string]any{"type": "string", "pattern": "^#"},
				"message": stringProp("Message text"),
			}),
		},
		{
			Category:    models.CategoryTypeIntegration,
			Subtype:     SubtypeGoogleCalendar,
			Label:       "Google Calendar",
			Description: "Books a showing on a calendar",
			Icon:        "calendar-plus",
			Color:       colorIntegration,
			Schema: objectSchema("Calendar configuration", map[string]any{
				"calendarId":      stringProp("Calendar to book on"),
				"title":           stringProp("Event title"),
				"durationMinutes": map[string]any{"type": "integer", "minimum": 15},
			}),
		},
	}
}

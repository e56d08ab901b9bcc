package config

const (
	// TopicJobEvents is the NSQ topic carrying all job pipeline events.
	// Inbound upload notifications and the follow-on external-phase events
	// share this topic; messages are discriminated by their event_type field.
	TopicJobEvents = "w2.job.events"

	// ChannelProcessor is the consumer channel for the processor service.
	ChannelProcessor = "processor"
)

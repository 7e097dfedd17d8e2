package bot

import "github.com/bwmarrin/discordgo"

// Responder provides an abstraction for responding to Discord interactions.
// This interface enables testing handlers without a live Discord connection.
type Responder interface {
	// Respond sends a response to an interaction.
	Respond(response *discordgo.InteractionResponse) error

	// Defer acknowledges the interaction; the reply is sent later with Edit.
	Defer() error

	// Edit replaces the deferred reply.
	Edit(edit *discordgo.WebhookEdit) error
}

// DiscordResponder implements Responder using a live Discord session.
type DiscordResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

// NewDiscordResponder creates a new DiscordResponder.
func NewDiscordResponder(s *discordgo.Session, i *discordgo.Interaction) *DiscordResponder {
	return &DiscordResponder{
		session:     s,
		interaction: i,
	}
}

// Respond sends a response to the interaction via Discord API.
func (r *DiscordResponder) Respond(response *discordgo.InteractionResponse) error {
	return r.session.InteractionRespond(r.interaction, response)
}

// Defer sends a deferred channel message response.
func (r *DiscordResponder) Defer() error {
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

// Edit edits the original interaction response.
func (r *DiscordResponder) Edit(edit *discordgo.WebhookEdit) error {
	_, err := r.session.InteractionResponseEdit(r.interaction, edit)
	return err
}

// MockResponder is a test double for Responder.
type MockResponder struct {
	LastResponse *discordgo.InteractionResponse
	LastEdit     *discordgo.WebhookEdit
	Deferred     bool
	Err          error
}

// Respond records the response for testing.
func (m *MockResponder) Respond(response *discordgo.InteractionResponse) error {
	m.LastResponse = response
	return m.Err
}

// Defer records that the interaction was deferred.
func (m *MockResponder) Defer() error {
	m.Deferred = true
	return m.Err
}

// Edit records the edit for testing.
func (m *MockResponder) Edit(edit *discordgo.WebhookEdit) error {
	m.LastEdit = edit
	return m.Err
}

// Embeds returns the embeds of the last reply, whether sent directly or by edit.
func (m *MockResponder) Embeds() []*discordgo.MessageEmbed {
	if m.LastEdit != nil && m.LastEdit.Embeds != nil {
		return *m.LastEdit.Embeds
	}
	if m.LastResponse != nil && m.LastResponse.Data != nil {
		return m.LastResponse.Data.Embeds
	}
	return nil
}

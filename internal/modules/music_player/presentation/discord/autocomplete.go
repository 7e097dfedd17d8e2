package discord

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/session"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// maxChoices is the Discord limit for autocomplete results.
const maxChoices = 25

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	sessions *session.Manager
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(sessions *session.Manager) *AutocompleteHandler {
	return &AutocompleteHandler{sessions: sessions}
}

// HandleRemove handles autocomplete for the remove command.
func (h *AutocompleteHandler) HandleRemove(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return fmt.Errorf("failed to parse guild ID: %w", err)
	}

	var typed string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "position" && opt.Focused {
			typed = fmt.Sprint(opt.Value)
			break
		}
	}

	var queue []*domain.TrackRequest
	if player, ok := h.sessions.Get(guildID); ok {
		queue = player.Queue()
	}

	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: queueChoices(queue, typed),
		},
	})
}

// queueChoices lists 1-indexed queue positions whose number starts with typed.
func queueChoices(
	queue []*domain.TrackRequest,
	typed string,
) []*discordgo.ApplicationCommandOptionChoice {
	typed = strings.TrimSpace(typed)

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, min(len(queue), maxChoices))
	for idx, req := range queue {
		position := idx + 1
		if typed != "" && !strings.HasPrefix(strconv.Itoa(position), typed) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  fmt.Sprintf("%d. %s", position, truncate(req.Track().DisplayTitle(), 90)),
			Value: position,
		})
		if len(choices) == maxChoices {
			break
		}
	}
	return choices
}

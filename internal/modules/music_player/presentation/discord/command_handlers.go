package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/bot"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/session"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

const (
	queuePageSize  = 10
	historyLimit   = 10
	commandTimeout = 30 * time.Second
)

var (
	errNotInVoice   = errors.New("not in a voice channel")
	errNotConnected = errors.New("not connected")
)

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	sessions    *session.Manager
	voiceState  ports.VoiceStateProvider
	history     ports.PlayHistory
	searchLimit int
}

// NewCommandHandlers creates new CommandHandlers. history may be nil.
func NewCommandHandlers(
	sessions *session.Manager,
	voiceState ports.VoiceStateProvider,
	history ports.PlayHistory,
	searchLimit int,
) *CommandHandlers {
	return &CommandHandlers{
		sessions:    sessions,
		voiceState:  voiceState,
		history:     history,
		searchLimit: searchLimit,
	}
}

// invocation holds the IDs every command needs.
type invocation struct {
	guildID   snowflake.ID
	userID    snowflake.ID
	channelID snowflake.ID
}

func parseInvocation(i *discordgo.InteractionCreate) (invocation, string) {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return invocation{}, "Invalid guild"
	}

	if i.Member == nil || i.Member.User == nil {
		return invocation{}, "Invalid user"
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return invocation{}, "Invalid user"
	}

	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return invocation{}, "Invalid notification channel"
	}

	return invocation{guildID: guildID, userID: userID, channelID: channelID}, ""
}

// ensureSession returns the guild's session, joining the user's voice channel if there is none.
func (h *CommandHandlers) ensureSession(ctx context.Context, inv invocation) (*session.Player, error) {
	if player, ok := h.sessions.Get(inv.guildID); ok {
		return player, nil
	}

	voiceChannelID, err := h.voiceState.GetUserVoiceChannel(inv.guildID, inv.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up voice channel: %w", err)
	}
	if voiceChannelID == 0 {
		return nil, errNotInVoice
	}

	player, err := h.sessions.Create(ctx, inv.guildID, voiceChannelID, inv.channelID)
	if errors.Is(err, domain.ErrSessionExists) {
		// Lost a race with a concurrent join.
		if existing, ok := h.sessions.Get(inv.guildID); ok {
			return existing, nil
		}
	}
	return player, err
}

func (h *CommandHandlers) existingSession(inv invocation) (*session.Player, error) {
	player, ok := h.sessions.Get(inv.guildID)
	if !ok {
		return nil, errNotConnected
	}
	return player, nil
}

// HandleJoin handles the /join command.
func (h *CommandHandlers) HandleJoin(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	var voiceChannelID snowflake.ID
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "channel" {
			id, err := snowflake.Parse(opt.ChannelValue(s).ID)
			if err != nil {
				return respondError(r, "Invalid voice channel")
			}
			voiceChannelID = id
		}
	}

	if voiceChannelID == 0 {
		id, err := h.voiceState.GetUserVoiceChannel(inv.guildID, inv.userID)
		if err != nil {
			return respondError(r, userMessage(err))
		}
		if id == 0 {
			return respondError(r, userMessage(errNotInVoice))
		}
		voiceChannelID = id
	}

	player, err := h.sessions.Create(ctx, inv.guildID, voiceChannelID, inv.channelID)
	if err != nil {
		return respondError(r, userMessage(err))
	}

	return respondSuccess(r, fmt.Sprintf("Connected to <#%d>.", player.VoiceChannelID()))
}

// HandleLeave handles the /leave command.
func (h *CommandHandlers) HandleLeave(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	if !h.sessions.Leave(inv.guildID) {
		return respondError(r, userMessage(errNotConnected))
	}

	return respondSuccess(r, "Disconnected.")
}

// HandlePlay handles the /play command.
func (h *CommandHandlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	var query, platformName string
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "query":
			query = opt.StringValue()
		case "platform":
			platformName = opt.StringValue()
		}
	}

	if err := r.Defer(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	player, err := h.ensureSession(ctx, inv)
	if err != nil {
		return editError(r, userMessage(err))
	}

	req, err := player.Play(ctx, query, inv.userID, domain.ParsePlatform(platformName))
	if err != nil {
		return editError(r, userMessage(err))
	}

	track := req.Track()
	if req.WasQueued() {
		return editSuccess(r, fmt.Sprintf("Queued %s.", trackLink(track)))
	}
	return editSuccess(r, fmt.Sprintf("Playing %s.", trackLink(track)))
}

// HandleSearch handles the /search command.
func (h *CommandHandlers) HandleSearch(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	var query, platformName string
	limit := h.searchLimit
	for _, opt := range i.ApplicationCommandData().Options {
		switch opt.Name {
		case "query":
			query = opt.StringValue()
		case "platform":
			platformName = opt.StringValue()
		case "limit":
			limit = int(opt.IntValue())
		}
	}

	if err := r.Defer(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	player, err := h.ensureSession(ctx, inv)
	if err != nil {
		return editError(r, userMessage(err))
	}

	results, err := player.Search(ctx, domain.SearchRequest{
		Query:       query,
		Platform:    domain.ParsePlatform(platformName),
		RequesterID: inv.userID,
		Limit:       limit,
	})
	if err != nil {
		return editError(r, userMessage(err))
	}

	if results.Len() == 0 {
		return editError(r, fmt.Sprintf("No results for **%s**.", query))
	}

	return editEmbed(r, searchResultsEmbed(results))
}

// HandlePick handles the /pick command.
func (h *CommandHandlers) HandlePick(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	var number int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "number" {
			number = int(opt.IntValue())
		}
	}

	if err := r.Defer(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	player, err := h.existingSession(inv)
	if err != nil {
		return editError(r, userMessage(err))
	}

	// Convert from 1-indexed (user input) to 0-indexed (internal)
	req, err := player.AddFromSearch(ctx, number-1, inv.userID)
	if err != nil {
		return editError(r, userMessage(err))
	}

	track := req.Track()
	if req.WasQueued() {
		return editSuccess(r, fmt.Sprintf("Queued %s.", trackLink(track)))
	}
	return editSuccess(r, fmt.Sprintf("Playing %s.", trackLink(track)))
}

// HandlePause handles the /pause command.
func (h *CommandHandlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(player *session.Player) error {
		if !player.Pause() {
			return respondError(r, "Playback is already paused.")
		}
		return respondSuccess(r, "Paused playback.")
	})
}

// HandleResume handles the /resume command.
func (h *CommandHandlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(player *session.Player) error {
		if !player.Unpause() {
			return respondError(r, "Playback is not paused.")
		}
		return respondSuccess(r, "Resumed playback.")
	})
}

// HandleSkip handles the /skip command.
func (h *CommandHandlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(player *session.Player) error {
		current := player.NowPlaying()
		if current == nil || !player.SkipSong() {
			return respondError(r, "Nothing is playing.")
		}
		return respondSuccess(r, fmt.Sprintf("Skipped %s.", trackLink(current.Track())))
	})
}

// HandleRetry handles the /retry command.
func (h *CommandHandlers) HandleRetry(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(player *session.Player) error {
		current := player.NowPlaying()
		if current == nil || !player.RetrySong() {
			return respondError(r, "Nothing is playing.")
		}
		return respondSuccess(r, fmt.Sprintf("Restarting %s.", trackLink(current.Track())))
	})
}

// HandleLoop handles the /loop command.
func (h *CommandHandlers) HandleLoop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(player *session.Player) error {
		var looping bool
		set := false
		for _, opt := range i.ApplicationCommandData().Options {
			if opt.Name == "enabled" {
				looping = player.SetLoop(opt.BoolValue())
				set = true
			}
		}
		if !set {
			looping = player.ToggleLoop()
		}

		if looping {
			return respondSuccess(r, "Now looping the current song.")
		}
		return respondSuccess(r, "Loop disabled.")
	})
}

// HandleVolume handles the /volume command.
func (h *CommandHandlers) HandleVolume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(player *session.Player) error {
		for _, opt := range i.ApplicationCommandData().Options {
			if opt.Name == "level" {
				applied := player.SetVolume(int(opt.IntValue()))
				return respondSuccess(r, fmt.Sprintf("Volume set to %d%%.", applied))
			}
		}
		return respondSuccess(r, fmt.Sprintf(
			"Volume is %d%% (max %d%%).",
			player.Volume(),
			player.MaxVolume(),
		))
	})
}

// HandleQueue handles the /queue command.
func (h *CommandHandlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(player *session.Player) error {
		return respondEmbed(r, queueEmbed(player.NowPlaying(), player.Queue(), player.IsLooping()))
	})
}

// HandleRemove handles the /remove command.
func (h *CommandHandlers) HandleRemove(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(player *session.Player) error {
		var position int
		for _, opt := range i.ApplicationCommandData().Options {
			if opt.Name == "position" {
				position = int(opt.IntValue())
			}
		}

		removed, ok := player.RemoveFromQueue(position - 1)
		if !ok {
			return respondError(r, fmt.Sprintf("There is no song at position %d.", position))
		}
		return respondSuccess(r, fmt.Sprintf("Removed %s.", trackLink(removed.Track())))
	})
}

// HandleClear handles the /clear command.
func (h *CommandHandlers) HandleClear(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(player *session.Player) error {
		player.ClearQueue()
		return respondSuccess(r, "Cleared the queue.")
	})
}

// HandleNowPlaying handles the /nowplaying command.
func (h *CommandHandlers) HandleNowPlaying(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	return h.withSession(i, r, func(player *session.Player) error {
		current := player.NowPlaying()
		if current == nil {
			return respondError(r, "Nothing is playing.")
		}
		return respondEmbed(r, nowPlayingEmbed(current, player.Timestamps(), time.Now(), player))
	})
}

// HandleHistory handles the /history command.
func (h *CommandHandlers) HandleHistory(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	if h.history == nil {
		return respondError(r, "Play history is disabled.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	entries, err := h.history.Recent(ctx, inv.guildID, historyLimit)
	if err != nil {
		slog.Error("failed to load play history", "guild", inv.guildID, "error", err)
		return respondError(r, "Could not load the play history.")
	}
	if len(entries) == 0 {
		return respondSuccess(r, "Nothing has been played yet.")
	}

	return respondEmbed(r, historyEmbed(entries))
}

// withSession runs fn with the guild's session, or reports that there is none.
func (h *CommandHandlers) withSession(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	fn func(player *session.Player) error,
) error {
	inv, msg := parseInvocation(i)
	if msg != "" {
		return respondError(r, msg)
	}

	player, err := h.existingSession(inv)
	if err != nil {
		return respondError(r, userMessage(err))
	}
	return fn(player)
}

// userMessage maps an error to a message suitable for Discord users.
func userMessage(err error) string {
	var providerErr *domain.ProviderError

	switch {
	case errors.Is(err, errNotInVoice):
		return "You need to be in a voice channel."
	case errors.Is(err, errNotConnected), errors.Is(err, domain.ErrSessionNotFound):
		return "I'm not connected to a voice channel."
	case errors.Is(err, domain.ErrSessionExists):
		return "I'm already connected in this server."
	case errors.Is(err, domain.ErrDestroyed):
		return "The session has ended."
	case errors.Is(err, domain.ErrNoSearchResults):
		return "Use /search first."
	case errors.Is(err, domain.ErrInvalidIndex):
		return "That number is not in the search results."
	case errors.Is(err, domain.ErrUnknownPlatform):
		return "That platform is not available."
	case errors.Is(err, domain.ErrResolution):
		return "Could not find anything to play for that."
	case errors.As(err, &providerErr):
		return fmt.Sprintf("%s is not responding right now.", providerErr.Platform.DisplayName())
	default:
		slog.Warn("unexpected command error", "error", err)
		return "Something went wrong."
	}
}

// trackLink renders a track as a markdown link when it has a URL.
func trackLink(track domain.TrackDescriptor) string {
	if track.URL != "" {
		return fmt.Sprintf("[%s](%s)", track.DisplayTitle(), track.URL)
	}
	return fmt.Sprintf("**%s**", track.DisplayTitle())
}

// writeTrackLine writes a single track line to the string builder.
// Escapes period to prevent Discord markdown list formatting.
func writeTrackLine(sb *strings.Builder, displayIndex int, track domain.TrackDescriptor) {
	fmt.Fprintf(sb, "%d\\. %s", displayIndex, trackLink(track))
	if track.Artist != "" {
		fmt.Fprintf(sb, " - %s", track.Artist)
	}
	if !track.IsStream && track.Duration > 0 {
		fmt.Fprintf(sb, " (%s)", track.FormattedDuration())
	}
	sb.WriteString("\n")
}

func searchResultsEmbed(results *domain.SearchResultSet) *discordgo.MessageEmbed {
	var sb strings.Builder
	for idx, track := range results.Entries {
		writeTrackLine(&sb, idx+1, track)
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Results for \"%s\"", truncate(results.Query, 200)),
		Description: sb.String(),
		Color:       results.Platform.Color(),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("%s · use /pick <number> to play", results.Platform.DisplayName()),
		},
	}
}

func queueEmbed(
	current *domain.TrackRequest,
	queue []*domain.TrackRequest,
	looping bool,
) *discordgo.MessageEmbed {
	var sb strings.Builder

	if current == nil {
		sb.WriteString("Nothing is playing.\n")
	} else {
		fmt.Fprintf(&sb, "**Now playing:** %s", trackLink(current.Track()))
		if looping {
			sb.WriteString(" 🔁")
		}
		sb.WriteString("\n")
	}

	if len(queue) == 0 {
		sb.WriteString("\nThe queue is empty.")
	} else {
		sb.WriteString("\n**Up next:**\n")
		for idx, req := range queue {
			if idx == queuePageSize {
				fmt.Fprintf(&sb, "...and %d more\n", len(queue)-queuePageSize)
				break
			}
			writeTrackLine(&sb, idx+1, req.Track())
		}
	}

	return &discordgo.MessageEmbed{
		Title:       "Queue",
		Description: sb.String(),
		Color:       colorSuccess,
	}
}

func nowPlayingEmbed(
	current *domain.TrackRequest,
	timing domain.PlaybackTiming,
	now time.Time,
	player *session.Player,
) *discordgo.MessageEmbed {
	track := current.Track()

	progress := "Live"
	if !track.IsStream {
		progress = fmt.Sprintf(
			"%s / %s",
			domain.FormatDuration(timing.Elapsed(now)),
			domain.FormatDuration(timing.Duration()),
		)
	}
	if player.IsPaused() {
		progress += " (paused)"
	}

	loop := "Off"
	if player.IsLooping() {
		loop = "On"
	}

	requester := domain.UnknownRequester
	if current.RequesterID() != 0 {
		requester = fmt.Sprintf("<@%d>", current.RequesterID())
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Now Playing",
		Description: trackLink(track),
		Color:       track.Platform.Color(),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Progress", Value: progress, Inline: true},
			{Name: "Volume", Value: fmt.Sprintf("%d%%", player.Volume()), Inline: true},
			{Name: "Loop", Value: loop, Inline: true},
			{Name: "Requested by", Value: requester, Inline: true},
		},
	}
	if track.ArtworkURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.ArtworkURL}
	}
	return embed
}

func historyEmbed(entries []ports.HistoryEntry) *discordgo.MessageEmbed {
	var sb strings.Builder
	for idx, entry := range entries {
		title := entry.Title
		if title == "" {
			title = entry.URL
		}
		if entry.URL != "" {
			fmt.Fprintf(&sb, "%d\\. [%s](%s)", idx+1, title, entry.URL)
		} else {
			fmt.Fprintf(&sb, "%d\\. **%s**", idx+1, title)
		}
		fmt.Fprintf(&sb, " <t:%d:R>\n", entry.StartedAt.Unix())
	}

	return &discordgo.MessageEmbed{
		Title:       "Recently Played",
		Description: sb.String(),
		Color:       colorSuccess,
	}
}

// Response helpers.

func respondEmbed(r bot.Responder, embed *discordgo.MessageEmbed) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func respondSuccess(r bot.Responder, description string) error {
	return respondEmbed(r, &discordgo.MessageEmbed{
		Description: description,
		Color:       colorSuccess,
	})
}

func respondError(r bot.Responder, message string) error {
	return respondEmbed(r, errorEmbed(message))
}

func editEmbed(r bot.Responder, embed *discordgo.MessageEmbed) error {
	return r.Edit(&discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{embed},
	})
}

func editSuccess(r bot.Responder, description string) error {
	return editEmbed(r, &discordgo.MessageEmbed{
		Description: description,
		Color:       colorSuccess,
	})
}

func editError(r bot.Responder, message string) error {
	return editEmbed(r, errorEmbed(message))
}

func errorEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Error",
		Description: message,
		Color:       colorError,
	}
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

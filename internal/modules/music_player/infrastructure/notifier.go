package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/frostzzone/frost-music/internal/modules/music_player/application/ports"
	"github.com/frostzzone/frost-music/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorRed   = 0xE74C3C
	colorGreen = 0x2ECC71
	colorBlue  = 0x3498DB
)

// Notifier sends notifications to Discord channels.
type Notifier struct {
	session    *discordgo.Session
	httpClient *http.Client
}

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{
		session: session,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// SendNowPlaying sends a "Now Playing" embed to the channel and returns the message ID.
func (n *Notifier) SendNowPlaying(
	channelID snowflake.ID,
	info *ports.NowPlayingInfo,
) (snowflake.ID, error) {
	embed := nowPlayingEmbed(info)

	if thumbnailURL := n.getBestThumbnail(
		info.Platform,
		info.Identifier,
		info.ArtworkURL,
	); thumbnailURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{
			URL: thumbnailURL,
		}
	}

	msg, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	if err != nil {
		return 0, err
	}
	messageID, err := snowflake.Parse(msg.ID)
	if err != nil {
		return 0, err
	}
	return messageID, nil
}

// nowPlayingEmbed builds the embed without the thumbnail lookup.
func nowPlayingEmbed(info *ports.NowPlayingInfo) *discordgo.MessageEmbed {
	author := "Now Playing"
	if info.Looped {
		author = "Now Playing (looped)"
	}

	artist := info.Artist
	if artist == "" {
		artist = "Unknown"
	}

	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name:    author,
			IconURL: info.Platform.IconURL(),
		},
		Title: info.Title,
		URL:   info.URI,
		Color: info.Platform.Color(),
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:   "Artist",
				Value:  artist,
				Inline: true,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text:    fmt.Sprintf("Requested by %s via %s", info.RequesterName, info.Platform.DisplayName()),
			IconURL: info.RequesterAvatarURL,
		},
	}

	if !info.EnqueuedAt.IsZero() {
		embed.Timestamp = info.EnqueuedAt.UTC().Format(time.RFC3339)
	}

	// Only show duration for non-stream tracks
	if !info.IsStream {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Duration",
			Value:  info.Duration,
			Inline: true,
		})
	}

	return embed
}

// DeleteMessage deletes a message from the channel.
func (n *Notifier) DeleteMessage(channelID snowflake.ID, messageID snowflake.ID) error {
	return n.session.ChannelMessageDelete(channelID.String(), messageID.String())
}

// SendQueueAdded sends a "Added to Queue" embed to the channel.
func (n *Notifier) SendQueueAdded(channelID snowflake.ID, info *ports.QueueAddedInfo) error {
	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), queueAddedEmbed(info))
	return err
}

func queueAddedEmbed(info *ports.QueueAddedInfo) *discordgo.MessageEmbed {
	title := info.Title
	if info.URI != "" {
		title = fmt.Sprintf("[%s](%s)", info.Title, info.URI)
	}

	return &discordgo.MessageEmbed{
		Description: fmt.Sprintf("Added **%s** to the queue at position %d.", title, info.Position),
		Color:       colorGreen,
	}
}

// SendInfo sends a plain informational embed to the channel.
func (n *Notifier) SendInfo(channelID snowflake.ID, message string) error {
	embed := &discordgo.MessageEmbed{
		Description: message,
		Color:       colorBlue,
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

// SendError sends an error message embed to the channel.
func (n *Notifier) SendError(channelID snowflake.ID, message string) error {
	embed := &discordgo.MessageEmbed{
		Description: message,
		Color:       colorRed,
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

// getBestThumbnail attempts to find the best quality thumbnail for the track.
// YouTube videos are probed for the highest available quality.
// Other platforms use the artwork URL as is.
func (n *Notifier) getBestThumbnail(
	platform domain.Platform,
	identifier string,
	fallbackURL string,
) string {
	switch platform {
	case domain.PlatformYouTube, domain.PlatformYouTubeMusic:
		if identifier == "" {
			return fallbackURL
		}
		return n.getYouTubeThumbnail(identifier, fallbackURL)
	default:
		return fallbackURL
	}
}

// getYouTubeThumbnail tries to find the highest quality YouTube thumbnail available.
func (n *Notifier) getYouTubeThumbnail(videoID string, fallbackURL string) string {
	qualities := []string{"maxresdefault", "sddefault", "hqdefault", "mqdefault"}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, quality := range qualities {
		url := fmt.Sprintf("https://img.youtube.com/vi/%s/%s.jpg", videoID, quality)
		if n.urlExists(ctx, url) {
			return url
		}
	}

	return fallbackURL
}

// urlExists checks if a URL returns a successful response using a HEAD request.
func (n *Notifier) urlExists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// Ensure Notifier implements ports.NotificationSender.
var _ ports.NotificationSender = (*Notifier)(nil)

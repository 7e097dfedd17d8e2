package bot

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestNewBot(t *testing.T) {
	cfg := &Config{
		DiscordToken: "test-token",
	}

	b := NewBot(cfg)

	if b == nil {
		t.Fatal("expected bot to be created, got nil")
	}
	if b.config != cfg {
		t.Error("expected config to be stored")
	}
}

func TestBot_LoadModules_InitializesModules(t *testing.T) {
	cfg := &Config{DiscordToken: "test-token"}
	b := NewBot(cfg)

	initCalled := false
	mod := &stubModule{
		name:    "test",
		initErr: nil,
	}
	// Track if Init was called by wrapping
	origMod := mod
	b.modules = []Module{origMod}

	// Use a custom stub that tracks init
	trackingMod := &trackingStubModule{
		stubModule: stubModule{name: "tracking"},
		initCalled: &initCalled,
	}
	b.modules = []Module{trackingMod}

	err := b.initModules()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !initCalled {
		t.Error("expected Init to be called")
	}
}

func TestBot_LoadModules_ReturnsInitError(t *testing.T) {
	cfg := &Config{DiscordToken: "test-token"}
	b := NewBot(cfg)

	expectedErr := errors.New("init failed")
	mod := &stubModule{
		name:    "failing",
		initErr: expectedErr,
	}
	b.modules = []Module{mod}

	err := b.initModules()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestBot_BuildHandlerMap(t *testing.T) {
	cfg := &Config{DiscordToken: "test-token"}
	b := NewBot(cfg)

	handler := func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error {
		return nil
	}

	mod := &stubModule{
		name: "test",
		handlers: map[string]InteractionHandler{
			"ping": handler,
		},
	}
	b.modules = []Module{mod}

	b.buildHandlerMap()

	if _, ok := b.handlers["ping"]; !ok {
		t.Error("expected ping handler to be registered")
	}
}

func TestBot_BuildHandlerMap_MultipleModules(t *testing.T) {
	cfg := &Config{DiscordToken: "test-token"}
	b := NewBot(cfg)

	handler1 := func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error {
		return nil
	}
	handler2 := func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error {
		return nil
	}

	mod1 := &stubModule{
		name: "mod1",
		handlers: map[string]InteractionHandler{
			"cmd1": handler1,
		},
	}
	mod2 := &stubModule{
		name: "mod2",
		handlers: map[string]InteractionHandler{
			"cmd2": handler2,
		},
	}
	b.modules = []Module{mod1, mod2}

	b.buildHandlerMap()

	if len(b.handlers) != 2 {
		t.Errorf("expected 2 handlers, got %d", len(b.handlers))
	}
}

func TestBot_CollectCommands(t *testing.T) {
	cfg := &Config{DiscordToken: "test-token"}
	b := NewBot(cfg)

	cmd := &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Ping command",
	}

	mod := &stubModule{
		name:     "test",
		commands: []*discordgo.ApplicationCommand{cmd},
	}
	b.modules = []Module{mod}

	commands := b.collectCommands()

	if len(commands) != 1 {
		t.Fatalf("expected 1 command, got %d", len(commands))
	}
	if commands[0].Name != "ping" {
		t.Errorf("expected command name %q, got %q", "ping", commands[0].Name)
	}
}

// trackingStubModule is a stub that tracks if Init was called
type trackingStubModule struct {
	stubModule
	initCalled *bool
}

func (m *trackingStubModule) Init(deps ModuleDependencies) error {
	*m.initCalled = true
	return m.stubModule.Init(deps)
}

// configurableStubModule is a stub that implements ConfigurableModule
type configurableStubModule struct {
	stubModule
	loadErr    error
	loadCalled bool
	deps       ModuleDependencies
}

func (m *configurableStubModule) LoadConfig() error {
	m.loadCalled = true
	return m.loadErr
}

func (m *configurableStubModule) Init(deps ModuleDependencies) error {
	m.deps = deps
	return nil
}

func TestBot_LoadModuleConfigs(t *testing.T) {
	b := NewBot(&Config{DiscordToken: "test-token"})

	configurable := &configurableStubModule{stubModule: stubModule{name: "configurable"}}
	plain := &stubModule{name: "plain"}
	b.modules = []Module{plain, configurable}

	if err := b.loadModuleConfigs(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !configurable.loadCalled {
		t.Error("expected LoadConfig to be called")
	}
}

func TestBot_LoadModuleConfigs_ReturnsError(t *testing.T) {
	b := NewBot(&Config{DiscordToken: "test-token"})

	expectedErr := errors.New("missing setting")
	b.modules = []Module{&configurableStubModule{
		stubModule: stubModule{name: "configurable"},
		loadErr:    expectedErr,
	}}

	err := b.loadModuleConfigs()
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}

func TestBot_InitModules_PassesDependencies(t *testing.T) {
	cfg := &Config{DiscordToken: "test-token"}
	b := NewBot(cfg)

	mod := &configurableStubModule{stubModule: stubModule{name: "configurable"}}
	b.modules = []Module{mod}

	if err := b.initModules(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mod.deps.Config != cfg {
		t.Error("expected bot config to be passed to modules")
	}
}

func TestMockResponder_Embeds(t *testing.T) {
	embed := &discordgo.MessageEmbed{Description: "done"}

	direct := &MockResponder{}
	_ = direct.Respond(&discordgo.InteractionResponse{
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
	if got := direct.Embeds(); len(got) != 1 || got[0] != embed {
		t.Errorf("expected embed from direct response, got %v", got)
	}

	deferred := &MockResponder{}
	_ = deferred.Defer()
	_ = deferred.Edit(&discordgo.WebhookEdit{Embeds: &[]*discordgo.MessageEmbed{embed}})
	if !deferred.Deferred {
		t.Error("expected Deferred to be recorded")
	}
	if got := deferred.Embeds(); len(got) != 1 || got[0] != embed {
		t.Errorf("expected embed from edit, got %v", got)
	}
}

// autocompleteStubModule is a stub that implements AutocompleteModule
type autocompleteStubModule struct {
	stubModule
	autocompletes map[string]AutocompleteHandler
}

func (m *autocompleteStubModule) AutocompleteHandlers() map[string]AutocompleteHandler {
	return m.autocompletes
}

func TestBot_HandleInteraction_RoutesAutocomplete(t *testing.T) {
	b := NewBot(&Config{DiscordToken: "test-token"})

	var routed []string
	b.modules = []Module{&autocompleteStubModule{
		stubModule: stubModule{name: "music_player"},
		autocompletes: map[string]AutocompleteHandler{
			"remove": func(*discordgo.Session, *discordgo.InteractionCreate) error {
				routed = append(routed, "remove")
				return nil
			},
		},
	}}
	b.buildHandlerMap()

	autocomplete := func(name string) *discordgo.InteractionCreate {
		return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
			Type: discordgo.InteractionApplicationCommandAutocomplete,
			Data: discordgo.ApplicationCommandInteractionData{Name: name},
		}}
	}

	b.handleInteraction(nil, autocomplete("remove"))
	// Commands without autocomplete are ignored
	b.handleInteraction(nil, autocomplete("play"))

	if len(routed) != 1 {
		t.Errorf("expected 1 routed autocomplete, got %v", routed)
	}
}

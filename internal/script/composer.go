package script

import (
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/nikhilbhutani/neuralnarrative/internal/content"
	"github.com/nikhilbhutani/neuralnarrative/pkg/textextract"
)

// SummaryLimit is the number of summary characters quoted in an exchange.
const SummaryLimit = 100

// Persona is a synthetic guest voice.
type Persona struct {
	Name  string `json:"name"`
	Style string `json:"style"`
	Intro string `json:"intro"`
}

var Personas = []Persona{
	{Name: "Dr. Nova", Style: "formal", Intro: "As an AI researcher, I can tell you..."},
	{Name: "Tech Rebel", Style: "casual", Intro: "Look, the way I see it..."},
	{Name: "ByteBot 3000", Style: "humor", Intro: "Oh great, another AI debate! Let's dive in..."},
	{Name: "LogicCore", Style: "logical", Intro: "Pure logic dictates the outcome."},
	{Name: "Glitch", Style: "chaotic", Intro: "Binary chaos detected, let's analyze..."},
}

var HostIntros = []string{
	"Let's get your thoughts on this.",
	"What's your take on this story?",
	"I'd love to hear your perspective on this.",
	"Any insights to share about this news?",
	"How do you interpret this development?",
}

var HostResponses = []string{
	"That's fascinating.",
	"I hadn't thought of it that way.",
	"Interesting perspective!",
	"You make a good point there.",
	"That's quite insightful.",
}

var Sectors = []string{"healthcare", "education", "finance", "entertainment", "transportation"}

// ExchangeTemplate is the host/guest dialogue rendered for each topic.
const ExchangeTemplate = "\nHost: Let's talk about {{title}}. {{host_intro}}\n\n" +
	"{{guest_name}} ({{guest_style}}): {{guest_intro}} " +
	"I was reading about {{title}}. " +
	"The article mentions {{summary}}... " +
	"This is particularly interesting because it highlights the rapid pace of technological change.\n\n" +
	"Host: {{host_response}} What implications do you think this has for the future?\n\n" +
	"{{guest_name}}: Well, if we extrapolate from current trends, " +
	"we might see significant changes in how we interact with technology. " +
	"This development could potentially impact various sectors including {{sector}}.\n"

// Script is a composed episode script.
type Script struct {
	Text      string
	Exchanges int
	// Fallbacks counts topics rendered with the minimal fallback exchange.
	Fallbacks int
}

func (s Script) String() string { return s.Text }

// Composer turns topics into a multi-speaker script.
type Composer struct {
	show     string
	template string

	mu  sync.Mutex
	rng *rand.Rand
}

type Option func(*Composer)

// WithTemplate overrides the exchange template.
func WithTemplate(tmpl string) Option {
	return func(c *Composer) { c.template = tmpl }
}

// NewComposer creates a Composer for the named show. A nil rng is replaced by
// a randomly seeded generator.
func NewComposer(show string, rng *rand.Rand, opts ...Option) *Composer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	c := &Composer{show: show, template: ExchangeTemplate, rng: rng}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Opening is the fixed script introduction.
func (c *Composer) Opening(runTimestamp string) string {
	return "Welcome to " + c.show + ". Episode " + runTimestamp + ".\n" +
		"Today we'll be discussing the latest in AI and tech news.\n\n"
}

// Closing is the fixed script sign-off.
func (c *Composer) Closing() string {
	return "\nThanks for listening to this episode of " + c.show + ". Join us next time for more AI discussions!"
}

// Compose renders the opening, one exchange per topic in input order, and
// the closing.
func (c *Composer) Compose(topics []content.Topic, runTimestamp string) Script {
	var b strings.Builder
	b.WriteString(c.Opening(runTimestamp))

	s := Script{}
	for _, topic := range topics {
		text, ok := c.Exchange(topic)
		if !ok {
			s.Fallbacks++
		}
		b.WriteString(text)
		b.WriteString("\n\n")
		s.Exchanges++
	}

	b.WriteString(c.Closing())
	s.Text = b.String()
	return s
}

// Exchange renders the dialogue for one topic. ok is false when rendering
// failed and the fallback exchange was used instead.
func (c *Composer) Exchange(topic content.Topic) (text string, ok bool) {
	guest, intro, response, sector := c.draw()
	summary := textextract.Truncate(topic.Summary, SummaryLimit)

	text, err := Render(c.template, map[string]string{
		"title":         topic.Title,
		"summary":       summary,
		"host_intro":    intro,
		"host_response": response,
		"guest_name":    guest.Name,
		"guest_style":   guest.Style,
		"guest_intro":   guest.Intro,
		"sector":        sector,
	})
	if err != nil {
		slog.Error("exchange rendering failed, using fallback", "title", topic.Title, "error", err)
		return FallbackExchange(topic), false
	}
	return text, true
}

// FallbackExchange is the minimal exchange used when rendering fails.
func FallbackExchange(topic content.Topic) string {
	return "\nPodcast Topic: " + topic.Title +
		"\nGuest: Let me share my thoughts on this topic. " +
		textextract.Truncate(topic.Summary, SummaryLimit) + "..."
}

func (c *Composer) draw() (Persona, string, string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	guest := Personas[c.rng.IntN(len(Personas))]
	intro := HostIntros[c.rng.IntN(len(HostIntros))]
	response := HostResponses[c.rng.IntN(len(HostResponses))]
	sector := Sectors[c.rng.IntN(len(Sectors))]
	return guest, intro, response, sector
}

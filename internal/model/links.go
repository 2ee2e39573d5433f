package model

// Link context keys recognized in links.json
const (
	LinkX         = "x"
	LinkLinkedIn  = "linkedin"
	LinkGitHub    = "github"
	LinkPortfolio = "portfolio"
	LinkResume    = "resume"
	LinkSender    = "sender_name"
)

// LinkContext holds the auxiliary template variables loaded from links.json.
// Every field defaults to the empty string.
type LinkContext struct {
	X          string
	LinkedIn   string
	GitHub     string
	Portfolio  string
	Resume     string
	SenderName string
}

// Vars returns the link context as template variables
func (l LinkContext) Vars() map[string]string {
	return map[string]string{
		LinkX:         l.X,
		LinkLinkedIn:  l.LinkedIn,
		LinkGitHub:    l.GitHub,
		LinkPortfolio: l.Portfolio,
		LinkResume:    l.Resume,
		LinkSender:    l.SenderName,
	}
}

// RenderContext is the per-recipient variable set used to fill templates
type RenderContext map[string]string

// NewRenderContext overlays the contact fields on the link context.
// Contact fields win on key collision.
func NewRenderContext(links LinkContext, c Contact) RenderContext {
	ctx := RenderContext(links.Vars())
	for k, v := range c.Fields() {
		ctx[k] = v
	}
	return ctx
}

package events

import (
	"errors"
	"fmt"
	"strings"

	sharedDomain "github.com/davicafu/dddlab/internal/shared/domain"
)

// Placeholder obligatorio en las plantillas de topic.
const eventNamePlaceholder = "{EventName}"

var ErrInvalidTemplate = errors.New("topic template must contain the {EventName} placeholder")

// TopicResolver deriva el topic de un evento de forma determinista a partir de
// su tipo y nombre: una plantilla para eventos de dominio y otra distinta para
// eventos de integración (inter-contexto).
type TopicResolver struct {
	domainTemplate      string
	integrationTemplate string
}

func NewTopicResolver(domainTemplate, integrationTemplate string) (*TopicResolver, error) {
	if !strings.Contains(domainTemplate, eventNamePlaceholder) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTemplate, domainTemplate)
	}
	if !strings.Contains(integrationTemplate, eventNamePlaceholder) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTemplate, integrationTemplate)
	}
	return &TopicResolver{
		domainTemplate:      domainTemplate,
		integrationTemplate: integrationTemplate,
	}, nil
}

// Resolve devuelve el topic para un (tipo, nombre) de evento.
func (r *TopicResolver) Resolve(kind sharedDomain.EventKind, eventName string) (string, error) {
	if eventName == "" {
		return "", errors.New("event name must not be empty")
	}

	template := r.domainTemplate
	if kind == sharedDomain.KindIntegration {
		template = r.integrationTemplate
	}
	return strings.ReplaceAll(template, eventNamePlaceholder, eventName), nil
}

// ResolveFor es el atajo para un evento ya construido.
func (r *TopicResolver) ResolveFor(evt sharedDomain.Event) (string, error) {
	h := evt.EventHeader()
	return r.Resolve(h.Kind, h.Name)
}

package loam

// ComponentMetadata is the front matter (or JSON body) of a library file.
// Components and connections are kept generic and mapped onto a
// domain.Document by the codec, which understands the [a, b] pair shape.
type ComponentMetadata struct {
	ID          string `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Description string `json:"description" mapstructure:"description"`
	Components  []any  `json:"components" mapstructure:"components"`
	Connections []any  `json:"connections" mapstructure:"connections"`
}

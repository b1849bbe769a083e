package harnessup

import (
	"fmt"
	"sort"
)

// ImplicitUserEntity is the entity every graph user node has, it does not
// need to be declared.
const ImplicitUserEntity = "User"

// MaxAttributeLength bounds entity attribute values
const MaxAttributeLength = 100

const emptyHint = "Empty string if not available or applicable."

// EntityAttribute is the single free-text property of an entity type
type EntityAttribute struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	MaxLength   int    `yaml:"max_length" json:"max_length"`
}

// EntityType is a node type of the knowledge graph
type EntityType struct {
	Name        string            `yaml:"name" json:"name"`
	Description string            `yaml:"description" json:"description"`
	Attributes  []EntityAttribute `yaml:"attributes" json:"attributes"`
}

// EdgeEndpoint is an allowed source to target pair of an edge type
type EdgeEndpoint struct {
	Source string `yaml:"source" json:"source"`
	Target string `yaml:"target" json:"target"`
}

// EdgeType is a relationship type of the knowledge graph
type EdgeType struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description"`
	Endpoints   []EdgeEndpoint `yaml:"endpoints" json:"endpoints"`
}

// Ontology is the custom graph schema used by the evaluation, tuned for coding
// agent conversations: technologies, conventions, projects, schedules and people.
type Ontology struct {
	Entities []EntityType `yaml:"entities" json:"entities"`
	Edges    []EdgeType   `yaml:"edges" json:"edges"`
}

func attribute(name, values string) []EntityAttribute {
	return []EntityAttribute{{Name: name, Description: values + " " + emptyHint, MaxLength: MaxAttributeLength}}
}

// DefaultOntology returns the coding agent ontology
func DefaultOntology() *Ontology {
	return &Ontology{
		Entities: []EntityType{
			{
				Name:        "Technology",
				Description: "Programming languages, frameworks, libraries, tools, or technologies. Entity names should be the technology name (e.g., \"React\", \"PostgreSQL\", \"FastAPI\"). Descriptions should include version, purpose, or usage context.",
				Attributes:  attribute("category", "language, framework, library, database, tool, platform, other."),
			},
			{
				Name:        "Convention",
				Description: "Coding standards, naming rules, formatting rules, or architectural patterns. Entity names should describe the convention clearly (e.g., \"2-space indentation\", \"snake_case_functions\"). Descriptions should explain rationale or scope.",
				Attributes:  attribute("scope", "python, typescript, javascript, database, api, git, general, other."),
			},
			{
				Name:        "Project",
				Description: "A software project, codebase, or service. Entity names should be the project name (e.g., \"taskflow-frontend\", \"taskflow-api\"). Descriptions should include type, purpose, and tech stack summary.",
				Attributes:  attribute("project_type", "frontend, backend, fullstack, service, library, infrastructure, other."),
			},
			{
				Name:        "Schedule",
				Description: "Meeting times, deployment windows, or recurring events. Entity names should describe the event clearly (e.g., \"Daily standup\", \"Tuesday Thursday deployments\"). Descriptions should include frequency, time, and attendees.",
				Attributes:  attribute("frequency", "daily, weekly, biweekly, monthly, fixed_day, flexible, once, other."),
			},
			{
				Name:        "Person",
				Description: "Team members, developers, or roles. Entity names should be the person's name or role. Descriptions should include team affiliation, responsibilities, and expertise.",
				Attributes:  attribute("role", "frontend_engineer, backend_engineer, devops_engineer, lead, manager, other."),
			},
		},
		Edges: []EdgeType{
			{
				Name:        "USES",
				Description: "Project or Person uses a Technology. Description should explain how/why the technology is used.",
				Endpoints: []EdgeEndpoint{
					{Source: "User", Target: "Technology"},
					{Source: "Project", Target: "Technology"},
					{Source: "Person", Target: "Technology"},
				},
			},
			{
				Name:        "FOLLOWS",
				Description: "Code or Project follows a Convention. Description should specify which parts/contexts follow the convention.",
				Endpoints: []EdgeEndpoint{
					{Source: "User", Target: "Convention"},
					{Source: "Project", Target: "Convention"},
				},
			},
			{
				Name:        "HAS_CONVENTION",
				Description: "Project explicitly has an associated Convention as a standard. Description should explain scope and when to apply.",
				Endpoints: []EdgeEndpoint{
					{Source: "Project", Target: "Convention"},
					{Source: "Technology", Target: "Convention"},
				},
			},
			{
				Name:        "SCHEDULED_FOR",
				Description: "An event or meeting is scheduled at specific times/days. Description should include frequency, time windows, and purpose.",
				Endpoints: []EdgeEndpoint{
					{Source: "Schedule", Target: "Person"},
					{Source: "User", Target: "Schedule"},
				},
			},
			{
				Name:        "RESPONSIBLE_FOR",
				Description: "Person is responsible for reviewing, maintaining, or owning a domain/project/technology. Description should include scope and responsibilities.",
				Endpoints: []EdgeEndpoint{
					{Source: "Person", Target: "Project"},
					{Source: "Person", Target: "Technology"},
					{Source: "Person", Target: "Convention"},
				},
			},
		},
	}
}

// EntityNames returns the declared entity type names in declaration order
func (o *Ontology) EntityNames() []string {
	names := make([]string, 0, len(o.Entities))
	for _, e := range o.Entities {
		names = append(names, e.Name)
	}
	return names
}

// EdgeNames returns the declared edge type names in declaration order
func (o *Ontology) EdgeNames() []string {
	names := make([]string, 0, len(o.Edges))
	for _, e := range o.Edges {
		names = append(names, e.Name)
	}
	return names
}

// EdgesFrom returns, sorted, the edge types an entity type can be the source of
func (o *Ontology) EdgesFrom(entity string) []string {
	var names []string
	for _, edge := range o.Edges {
		for _, endpoint := range edge.Endpoints {
			if endpoint.Source == entity {
				names = append(names, edge.Name)
				break
			}
		}
	}
	sort.Strings(names)
	return names
}

// Validate checks names are unique, attributes are bounded and every edge
// endpoint refers to a declared entity type or to User.
func (o *Ontology) Validate() error {
	entities := map[string]bool{ImplicitUserEntity: true}
	for _, e := range o.Entities {
		if e.Name == "" {
			return fmt.Errorf("entity type with empty name")
		}
		if e.Name == ImplicitUserEntity || entities[e.Name] {
			return fmt.Errorf("duplicate entity type %q", e.Name)
		}
		entities[e.Name] = true

		for _, attr := range e.Attributes {
			if attr.MaxLength <= 0 || attr.MaxLength > MaxAttributeLength {
				return fmt.Errorf("entity type %q attribute %q: max_length must be within 1..%d", e.Name, attr.Name, MaxAttributeLength)
			}
		}
	}

	edges := make(map[string]bool)
	for _, edge := range o.Edges {
		if edge.Name == "" {
			return fmt.Errorf("edge type with empty name")
		}
		if edges[edge.Name] {
			return fmt.Errorf("duplicate edge type %q", edge.Name)
		}
		edges[edge.Name] = true

		if len(edge.Endpoints) == 0 {
			return fmt.Errorf("edge type %q has no endpoints", edge.Name)
		}
		for _, endpoint := range edge.Endpoints {
			if !entities[endpoint.Source] {
				return fmt.Errorf("edge type %q: unknown source entity %q", edge.Name, endpoint.Source)
			}
			if !entities[endpoint.Target] {
				return fmt.Errorf("edge type %q: unknown target entity %q", edge.Name, endpoint.Target)
			}
		}
	}

	return nil
}

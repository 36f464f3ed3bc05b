// Package catalog holds the static household configuration: the people and
// the recurring tasks each of them owns. The built-in defaults can be
// replaced by a YAML file; nothing here changes at runtime.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Person is an immutable identity from the static configuration.
// The Telegram fields name environment variables, not secrets: each person
// may have their own bot token.
type Person struct {
	ID                  string `yaml:"id" json:"id"`
	Name                string `yaml:"name" json:"name"`
	Email               string `yaml:"email,omitempty" json:"email,omitempty"`
	TelegramChatIDEnv   string `yaml:"telegram_chat_id_env,omitempty" json:"-"`
	TelegramBotTokenEnv string `yaml:"telegram_bot_token_env,omitempty" json:"-"`
}

// TaskDefinition is a recurring chore permanently assigned to one person.
type TaskDefinition struct {
	ID      string `yaml:"id" json:"id"`
	Title   string `yaml:"title" json:"title"`
	OwnerID string `yaml:"owner_id" json:"ownerId"`
}

// Catalog is the full static configuration.
type Catalog struct {
	People []Person         `yaml:"people"`
	Tasks  []TaskDefinition `yaml:"tasks"`

	peopleByID map[string]Person
	tasksByID  map[string]TaskDefinition
}

// Default returns the built-in household catalog.
func Default() *Catalog {
	c := &Catalog{
		People: []Person{
			{
				ID:                  "david",
				Name:                "David",
				Email:               "david.cerezal77@gmail.com",
				TelegramChatIDEnv:   "TELEGRAM_CHAT_ID",
				TelegramBotTokenEnv: "TELEGRAM_DAILY_CLEANING_BOT_TOKEN",
			},
			{
				ID:                  "eva",
				Name:                "Eva",
				Email:               "evapascualllanos@gmail.com",
				TelegramChatIDEnv:   "TELEGRAM_CHAT_ID",
				TelegramBotTokenEnv: "TELEGRAM_DAILY_CLEANING_EVA_BOT_TOKEN",
			},
		},
		Tasks: []TaskDefinition{
			{ID: "compra", Title: "Compra", OwnerID: "david"},
			{ID: "lavadora", Title: "Lavadora", OwnerID: "david"},
			{ID: "polvo-orden", Title: "Polvo/habitaciones + ordenar", OwnerID: "david"},
			{ID: "cocina", Title: "Cocina", OwnerID: "eva"},
			{ID: "banos", Title: "Baños", OwnerID: "eva"},
			{ID: "suelos", Title: "Suelos (barrer o aspirador)", OwnerID: "eva"},
			{ID: "lavavajillas", Title: "Responsable del lavavajillas", OwnerID: "eva"},
		},
	}
	if err := c.index(); err != nil {
		// The built-in catalog is internally consistent.
		panic(err)
	}
	return c
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog file: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, fmt.Errorf("invalid catalog %s: %w", path, err)
	}
	return &c, nil
}

func (c *Catalog) index() error {
	if len(c.People) == 0 {
		return fmt.Errorf("catalog has no people")
	}
	c.peopleByID = make(map[string]Person, len(c.People))
	for _, p := range c.People {
		if p.ID == "" {
			return fmt.Errorf("person with empty id")
		}
		if _, dup := c.peopleByID[p.ID]; dup {
			return fmt.Errorf("duplicate person id %q", p.ID)
		}
		c.peopleByID[p.ID] = p
	}
	c.tasksByID = make(map[string]TaskDefinition, len(c.Tasks))
	for _, t := range c.Tasks {
		if t.ID == "" {
			return fmt.Errorf("task with empty id")
		}
		if _, dup := c.tasksByID[t.ID]; dup {
			return fmt.Errorf("duplicate task id %q", t.ID)
		}
		if _, ok := c.peopleByID[t.OwnerID]; !ok {
			return fmt.Errorf("task %q owned by unknown person %q", t.ID, t.OwnerID)
		}
		c.tasksByID[t.ID] = t
	}
	return nil
}

// PersonByID looks up a person; ok is false for unknown ids.
func (c *Catalog) PersonByID(id string) (Person, bool) {
	p, ok := c.peopleByID[id]
	return p, ok
}

// TaskByID looks up a task definition.
func (c *Catalog) TaskByID(id string) (TaskDefinition, bool) {
	t, ok := c.tasksByID[id]
	return t, ok
}

// PersonName returns the display name for an id, falling back to the id
// itself for unknown people (old weeks may reference removed owners).
func (c *Catalog) PersonName(id string) string {
	if p, ok := c.peopleByID[id]; ok {
		return p.Name
	}
	return id
}

// EmailRecipients returns the addresses of every person with an email
// configured.
func (c *Catalog) EmailRecipients() []string {
	var addrs []string
	for _, p := range c.People {
		if p.Email != "" {
			addrs = append(addrs, p.Email)
		}
	}
	return addrs
}

package chat

import (
	"testing"

	"github.com/jkmcrg/diybot/internal/inventory"
	"github.com/jkmcrg/diybot/internal/tools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(cmds []tools.AddTool) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Name
	}
	return out
}

func TestExtractOwnershipClaims_DrillAndHammer(t *testing.T) {
	cmds := ExtractOwnershipClaims("yes i have a drill and a hammer", inventory.DefaultTools())

	require.Len(t, cmds, 2)
	assert.Equal(t, []string{"Power Drill", "Hammer"}, names(cmds))
	assert.Equal(t, "Power Tools", cmds[0].Category)
	assert.Equal(t, "Hand Tools", cmds[1].Category)
	for _, c := range cmds {
		assert.Equal(t, 1, c.Quantity)
		assert.Equal(t, inventory.ConditionWorking, c.Condition)
	}
}

func TestExtractOwnershipClaims_IdempotentAgainstStore(t *testing.T) {
	existing := append(inventory.DefaultTools(),
		inventory.Tool{Name: "Power Drill"},
		inventory.Tool{Name: "Claw Hammer"},
	)
	assert.Empty(t, ExtractOwnershipClaims("yes i have a drill and a hammer", existing))
}

func TestExtractOwnershipClaims_NoPhrase(t *testing.T) {
	tests := []string{
		"I need a drill",
		"Should I buy a hammer?",
		"hi haven't got a drill",
		"",
	}
	for _, msg := range tests {
		assert.Empty(t, ExtractOwnershipClaims(msg, nil), msg)
	}
}

func TestExtractOwnershipClaims_OnlyTextAfterPhrase(t *testing.T) {
	cmds := ExtractOwnershipClaims("I need a hammer but I own a ladder", nil)
	assert.Equal(t, []string{"Ladder"}, names(cmds))
}

func TestExtractOwnershipClaims_Phrases(t *testing.T) {
	tests := map[string]string{
		"I HAVE A DRILL":                  "Power Drill",
		"i have an angle grinder":         "Angle Grinder",
		"I've got pliers":                 "Pliers",
		"I’ve got a stud finder":          "Stud Finder",
		"i got a jigsaw for christmas":    "Jigsaw",
		"I already have two screwdrivers": "Screwdriver Set",
		"i own a circular saw":            "Circular Saw",
	}
	for msg, want := range tests {
		t.Run(msg, func(t *testing.T) {
			assert.Equal(t, []string{want}, names(ExtractOwnershipClaims(msg, nil)))
		})
	}
}

func TestExtractOwnershipClaims_NegatedOrIntentIsNotAClaim(t *testing.T) {
	for _, msg := range []string{
		"I have no drill, what should I buy?",
		"I have to borrow a hammer from my neighbor",
		"I have never used a circular saw",
		"I got to buy a ladder first",
		"I own no saw yet",
		"I've got to find a level",
		"I already have not a single screwdriver",
	} {
		t.Run(msg, func(t *testing.T) {
			assert.Empty(t, ExtractOwnershipClaims(msg, nil))
		})
	}
}

func TestExtractOwnershipClaims_DedupesWithinMessage(t *testing.T) {
	cmds := ExtractOwnershipClaims("i have a drill, a cordless drill and more drills", nil)
	assert.Equal(t, []string{"Power Drill"}, names(cmds))
}

func TestExtractOwnershipClaims_WholeWordsOnly(t *testing.T) {
	assert.Empty(t, ExtractOwnershipClaims("i have a sledgehammer", nil))
}

func TestFindOwnershipPhrase_EarliestThenLongest(t *testing.T) {
	pos, phrase := findOwnershipPhrase("so i have a drill. i own a saw")
	assert.Equal(t, 3, pos)
	assert.Equal(t, "i have a", phrase)

	pos, phrase = findOwnershipPhrase("nothing here")
	assert.Equal(t, -1, pos)
	assert.Empty(t, phrase)
}

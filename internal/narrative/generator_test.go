package narrative

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testAnswers = AnswerSet{What: "w", Context: "c", Outcome: "o", Reaction: "r"}

func TestGeneratorSameTextDistinctPersonas(t *testing.T) {
	for _, parallel := range []bool{false, true} {
		client := newScriptedClient().on("generate", reply(scenarioJSON("X")), reply(scenarioJSON("X")), reply(scenarioJSON("X")))
		g := NewGenerator(client, nil, CompletionSettings{}, parallel)
		assignment := PersonaAssignment{PersonaFriend, PersonaFormal, PersonaYoungSibling}

		variants, err := g.Generate(context.Background(), testAnswers, assignment, [SlotCount]*ScenarioVariant{}, nil)
		require.NoError(t, err)

		personas := map[PersonaID]bool{}
		for i, v := range variants {
			require.NotNil(t, v)
			assert.Equal(t, "X", v.Text)
			assert.Equal(t, Slot(i+1), v.Slot)
			assert.Equal(t, assignment[i], v.Persona)
			personas[v.Persona] = true
		}
		assert.Len(t, personas, 3)
		assert.Equal(t, 3, client.calls("generate"))
	}
}

func TestGeneratorPromptCarriesExampleAndAnswers(t *testing.T) {
	client := newScriptedClient().on("generate", reply(scenarioJSON("X")), reply(scenarioJSON("X")), reply(scenarioJSON("X")))
	g := NewGenerator(client, nil, CompletionSettings{}, false)

	_, err := g.Generate(context.Background(), AnswerSet{What: "lost my account", Context: "gaming site", Outcome: "got it back", Reaction: "relieved"},
		PersonaAssignment{PersonaFormal, PersonaYoungSibling, PersonaFriend}, [SlotCount]*ScenarioVariant{}, nil)
	require.NoError(t, err)

	prompt := client.requests[0].Messages[0].Content
	assert.True(t, containsAll(prompt, workedExample.Scenario, "lost my account", "gaming site", "got it back", "relieved", "output_scenario"))
	formal, _ := DefaultPersonaCatalog().Get(PersonaFormal)
	assert.Equal(t, []string{formal.Template}, client.requests[0].System)
}

func TestGeneratorPartialFailureKeepsSucceededSlots(t *testing.T) {
	texts := map[PersonaID]string{PersonaFormal: "F", PersonaYoungSibling: "Y", PersonaFriend: "R"}
	assignment := PersonaAssignment{PersonaFormal, PersonaYoungSibling, PersonaFriend}

	g := NewGenerator(personaClient(texts, map[PersonaID]bool{PersonaYoungSibling: true}), nil, CompletionSettings{}, true)
	variants, err := g.Generate(context.Background(), testAnswers, assignment, [SlotCount]*ScenarioVariant{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFanOutIncomplete))
	assert.True(t, errors.Is(err, ErrCollaboratorUnavailable))
	var slotErr *SlotError
	require.True(t, errors.As(err, &slotErr))
	assert.Equal(t, Slot(2), slotErr.Slot)

	require.NotNil(t, variants[0])
	assert.Nil(t, variants[1])
	require.NotNil(t, variants[2])

	// Retry only regenerates the missing slot.
	var mu sync.Mutex
	calls := 0
	retryClient := personaClient(texts, nil)
	counting := NewGenerator(clientCounter(retryClient, &mu, &calls), nil, CompletionSettings{}, false)
	variants, err = counting.Generate(context.Background(), testAnswers, assignment, variants, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "F", variants[0].Text)
	assert.Equal(t, "Y", variants[1].Text)
	assert.Equal(t, "R", variants[2].Text)
}

func TestGeneratorMalformedOutput(t *testing.T) {
	client := newScriptedClient().on("generate", reply(scenarioJSON("ok")), reply(`{"scenario":"wrong key"}`), reply(scenarioJSON("ok")))
	g := NewGenerator(client, nil, CompletionSettings{}, false)

	variants, err := g.Generate(context.Background(), testAnswers, PersonaAssignment{PersonaFormal, PersonaYoungSibling, PersonaFriend}, [SlotCount]*ScenarioVariant{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedExtraction))
	assert.Nil(t, variants[1])
	assert.NotNil(t, variants[0])
	assert.NotNil(t, variants[2])
}

func TestGeneratorReportsProgress(t *testing.T) {
	client := newScriptedClient().on("generate", reply(scenarioJSON("a")), reply(scenarioJSON("b")), reply(scenarioJSON("c")))
	g := NewGenerator(client, nil, CompletionSettings{}, false)

	var seen []int
	_, err := g.Generate(context.Background(), testAnswers, PersonaAssignment{PersonaFormal, PersonaYoungSibling, PersonaFriend}, [SlotCount]*ScenarioVariant{},
		func(done, total int) {
			assert.Equal(t, 3, total)
			seen = append(seen, done)
		})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3}, seen)
}

package runtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cascadehq/cascade/pkg/domain"
)

func recorder(order *[]string, name string) domain.Descriptor {
	return stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
		*order = append(*order, name)
		return domain.Continue(), nil
	})
}

func TestExecute_InsertRunsBeforePendingStages(t *testing.T) {
	engine := newEngine(t)

	var order []string
	inserter := stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
		order = append(order, "A")
		sc.Insert(recorder(&order, "X"), recorder(&order, "Y"))
		return domain.Continue(), nil
	})

	chain := domain.NewChain(inserter, recorder(&order, "B"))
	out, _ := engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{}).Wait(context.Background())

	assert.Equal(t, domain.StatusRejected, out.Status)
	assert.Equal(t, []string{"A", "X", "Y", "B"}, order,
		"inserted stages run immediately after the inserting stage")
}

func TestExecute_AppendRunsAfterPendingStages(t *testing.T) {
	engine := newEngine(t)

	var order []string
	appender := stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
		order = append(order, "A")
		sc.Append(recorder(&order, "Z"))
		return domain.Continue(), nil
	})

	chain := domain.NewChain(appender, recorder(&order, "B"))
	engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{}).Wait(context.Background())

	assert.Equal(t, []string{"A", "B", "Z"}, order)
}

func TestExecute_InsertedStageCanInsertAgain(t *testing.T) {
	engine := newEngine(t)

	var order []string
	nested := stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
		order = append(order, "X")
		sc.Insert(recorder(&order, "X2"))
		return domain.Continue(), nil
	})
	root := stageOf(func(ctx context.Context, sc domain.Scope) (domain.Transition, error) {
		order = append(order, "A")
		sc.Insert(domain.Inline(nested.Stage))
		return domain.Continue(), nil
	})

	chain := domain.NewChain(root, recorder(&order, "B"))
	engine.Execute(context.Background(), chain, domain.NewContext(), memoFactory{}).Wait(context.Background())

	assert.Equal(t, []string{"A", "X", "X2", "B"}, order)
}

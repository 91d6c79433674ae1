package plan

import (
	"math"
	"testing"
)

func TestClassifyABC(t *testing.T) {
	tasks := []Task{
		{ID: 1, TaskName: "Revestimento", CostMaterials: 50, CostLabor: 20},
		{ID: 2, TaskName: "Pintura", CostMaterials: 3, CostLabor: 2},
		{ID: 3, TaskName: "Estrutura", CostMaterials: 8, CostLabor: 2},
		{ID: 4, TaskName: "Limpeza", CostMaterials: 0, CostLabor: 0},
		{ID: 5, TaskName: "Vidros", CostMaterials: 10, CostLabor: 0},
		{ID: 6, TaskName: "Elétrica", CostMaterials: 3, CostLabor: 2},
	}

	curve := ClassifyABC(tasks)
	if curve.GrandTotal != 100 {
		t.Fatalf("expected grand total 100, got %v", curve.GrandTotal)
	}
	if len(curve.Items) != 5 {
		t.Fatalf("expected zero-cost task to be excluded, got %d items", len(curve.Items))
	}

	expected := []struct {
		id         int
		cumulative float64
		class      string
	}{
		{1, 70, ClassA},
		{3, 80, ClassA},
		{5, 90, ClassB},
		{2, 95, ClassB},
		{6, 100, ClassC},
	}
	for i, e := range expected {
		item := curve.Items[i]
		if item.TaskID != e.id {
			t.Errorf("position %d: expected task %d, got %d", i, e.id, item.TaskID)
		}
		if math.Abs(item.CumulativePercent-e.cumulative) > 1e-9 {
			t.Errorf("task %d: expected cumulative %v, got %v", item.TaskID, e.cumulative, item.CumulativePercent)
		}
		if item.Class != e.class {
			t.Errorf("task %d: expected class %s, got %s", item.TaskID, e.class, item.Class)
		}
	}

	if s := curve.Summary[ClassA]; s.Count != 2 || s.Cost != 80 {
		t.Errorf("unexpected class A summary: %+v", s)
	}
	if s := curve.Summary[ClassB]; s.Count != 2 || s.Cost != 15 {
		t.Errorf("unexpected class B summary: %+v", s)
	}
	if s := curve.Summary[ClassC]; s.Count != 1 || s.Cost != 5 {
		t.Errorf("unexpected class C summary: %+v", s)
	}
}

func TestClassifyABCWithoutCosts(t *testing.T) {
	curve := ClassifyABC([]Task{{ID: 1}, {ID: 2}})
	if !curve.Empty() {
		t.Errorf("expected empty curve, got %+v", curve.Items)
	}
	if curve.GrandTotal != 0 {
		t.Errorf("expected grand total 0, got %v", curve.GrandTotal)
	}
}

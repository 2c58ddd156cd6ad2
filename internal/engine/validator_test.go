package engine

import (
	"reflect"
	"strings"
	"testing"

	"github.com/flowmind/flowmind/internal/atoms"
	"github.com/flowmind/flowmind/internal/domain"
)

func testRegistry() *atoms.Registry {
	reg := atoms.NewRegistry()
	reg.RegisterAll([]domain.AtomDef{
		{
			ID: "globalx.permission.query_permissions",
			Inputs: []domain.AtomInput{
				{Name: "user_id", Required: true, Type: "string"},
			},
			Outputs: []domain.AtomOutput{
				{Name: "has_permission", Type: "boolean"},
			},
		},
		{
			ID: "globalx.transfer.file_transfer",
			Inputs: []domain.AtomInput{
				{Name: "file_path", Required: true, Type: "string"},
				{Name: "sender_id", Required: true, Type: "string"},
				{Name: "receiver_id", Required: true, Type: "string"},
			},
		},
		{
			ID: "common.file.get_file_size",
			Inputs: []domain.AtomInput{
				{Name: "file_path", Required: true, Type: "string"},
			},
			Outputs: []domain.AtomOutput{
				{Name: "size", Type: "number"},
			},
		},
	})
	return reg
}

func validDoc() map[string]any {
	return map[string]any{
		"target": "transfer a file",
		"plan": map[string]any{
			"steps": []any{
				map[string]any{
					"step_id": "query_perm",
					"id":      "globalx.permission.query_permissions",
					"target":  "check permission",
					"inputs":  map[string]any{"user_id": "user_001"},
				},
				map[string]any{
					"step_id": "transfer_file",
					"id":      "globalx.transfer.file_transfer",
					"target":  "transfer the file",
					"inputs": map[string]any{
						"file_path":   "/tmp/report.txt",
						"sender_id":   "user_001",
						"receiver_id": "user_002",
					},
					"depends_on": []any{"query_perm"},
				},
			},
			"outputs": map[string]any{"result": "Transfer completed"},
		},
	}
}

func hasCode(issues []domain.ValidationIssue, code domain.ErrorCode) bool {
	for _, issue := range issues {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func TestValidate_ValidPlan(t *testing.T) {
	plan, result := Validate(validDoc(), testRegistry())

	if !result.Valid {
		t.Fatalf("expected valid plan, got errors: %v", result.Errors)
	}
	if plan == nil {
		t.Fatal("expected typed plan document on success")
	}

	want := []string{"query_perm", "transfer_file"}
	if !reflect.DeepEqual(result.ExecutionOrder, want) {
		t.Errorf("expected order %v, got %v", want, result.ExecutionOrder)
	}

	// Warnings присутствуют всегда, даже пустые
	if result.Warnings == nil {
		t.Error("warnings should be an empty slice, not nil")
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no errors, got %v", result.Errors)
	}

	if plan.Target != "transfer a file" {
		t.Errorf("unexpected target: %q", plan.Target)
	}
	if len(plan.Plan.Steps) != 2 {
		t.Errorf("expected 2 typed steps, got %d", len(plan.Plan.Steps))
	}
}

func TestValidate_NilDocument(t *testing.T) {
	plan, result := Validate(nil, testRegistry())

	if result.Valid {
		t.Fatal("nil document should be invalid")
	}
	if plan != nil {
		t.Error("no typed plan should be returned on failure")
	}
	if !hasCode(result.Errors, domain.CodeInvalidType) {
		t.Errorf("expected INVALID_TYPE, got %v", result.Errors)
	}
}

func TestValidate_RootShapeErrors(t *testing.T) {
	doc := map[string]any{
		"target": 42,
		"plan":   "not an object",
	}

	_, result := Validate(doc, testRegistry())
	if result.Valid {
		t.Fatal("expected invalid result")
	}

	// Обе ошибки корня собираются за один проход
	if !hasCode(result.Errors, domain.CodeInvalidType) {
		t.Errorf("expected INVALID_TYPE for target, got %v", result.Errors)
	}
	if !hasCode(result.Errors, domain.CodeMissingField) {
		t.Errorf("expected MISSING_FIELD for plan.steps, got %v", result.Errors)
	}
	if result.ExecutionOrder != nil {
		t.Error("execution_order must be absent on failure")
	}
}

func TestValidate_MissingTarget(t *testing.T) {
	doc := validDoc()
	delete(doc, "target")

	_, result := Validate(doc, testRegistry())
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != domain.CodeMissingField {
		t.Fatalf("expected single MISSING_FIELD, got %v", result.Errors)
	}
	if result.Errors[0].Path != "target" {
		t.Errorf("expected path 'target', got %q", result.Errors[0].Path)
	}
}

func TestValidate_EmptySteps(t *testing.T) {
	doc := validDoc()
	doc["plan"].(map[string]any)["steps"] = []any{}

	_, result := Validate(doc, testRegistry())
	if result.Valid || !hasCode(result.Errors, domain.CodeEmptySteps) {
		t.Errorf("expected EMPTY_STEPS, got %v", result.Errors)
	}
}

func TestValidate_StepsNotArray(t *testing.T) {
	doc := validDoc()
	doc["plan"].(map[string]any)["steps"] = "nope"

	_, result := Validate(doc, testRegistry())
	if result.Valid || !hasCode(result.Errors, domain.CodeInvalidType) {
		t.Errorf("expected INVALID_TYPE, got %v", result.Errors)
	}
	if result.Errors[0].Path != "plan.steps" {
		t.Errorf("expected path 'plan.steps', got %q", result.Errors[0].Path)
	}
}

func TestValidate_StepShapeErrorsCollected(t *testing.T) {
	doc := map[string]any{
		"target": "t",
		"plan": map[string]any{
			"steps": []any{
				map[string]any{"target": "no id or inputs"},
				"not an object",
				map[string]any{
					"id":      42,
					"target":  "bad id type",
					"inputs":  map[string]any{},
					"step_id": "   ",
				},
			},
		},
	}

	_, result := Validate(doc, testRegistry())
	if result.Valid {
		t.Fatal("expected invalid result")
	}

	// Все ошибки формы шагов собираются одной стадией
	for _, code := range []domain.ErrorCode{
		domain.CodeMissingField,
		domain.CodeInvalidType,
		domain.CodeEmptyStepID,
	} {
		if !hasCode(result.Errors, code) {
			t.Errorf("expected %s among errors, got %v", code, result.Errors)
		}
	}
}

func TestValidate_StepShapeShortCircuitsSemantics(t *testing.T) {
	// Шаг без inputs и с неизвестным атомом: стадия формы должна
	// провалиться до привязки к реестру.
	doc := map[string]any{
		"target": "t",
		"plan": map[string]any{
			"steps": []any{
				map[string]any{"id": "no.such.atom", "target": "x"},
			},
		},
	}

	_, result := Validate(doc, testRegistry())
	if result.Valid {
		t.Fatal("expected invalid result")
	}
	if hasCode(result.Errors, domain.CodeUnknownAtomID) {
		t.Errorf("semantic errors must not appear after shape failure: %v", result.Errors)
	}
}

func TestValidate_PlanOutputsNotObject(t *testing.T) {
	doc := validDoc()
	doc["plan"].(map[string]any)["outputs"] = []any{"nope"}

	_, result := Validate(doc, testRegistry())
	if result.Valid || !hasCode(result.Errors, domain.CodeInvalidType) {
		t.Errorf("expected INVALID_TYPE for plan.outputs, got %v", result.Errors)
	}
}

func TestValidate_DuplicateStepID(t *testing.T) {
	doc := validDoc()
	steps := doc["plan"].(map[string]any)["steps"].([]any)
	steps[1].(map[string]any)["step_id"] = "query_perm"
	delete(steps[1].(map[string]any), "depends_on")

	_, result := Validate(doc, testRegistry())
	if result.Valid || !hasCode(result.Errors, domain.CodeDuplicateStepID) {
		t.Errorf("expected DUPLICATE_STEP_ID, got %v", result.Errors)
	}
}

func TestValidate_PositionalIDCollision(t *testing.T) {
	// Явный step_id "1" сталкивается с позиционным id второго шага
	doc := map[string]any{
		"target": "t",
		"plan": map[string]any{
			"steps": []any{
				map[string]any{
					"step_id": "1",
					"id":      "globalx.permission.query_permissions",
					"target":  "a",
					"inputs":  map[string]any{"user_id": "u"},
				},
				map[string]any{
					"id":     "globalx.permission.query_permissions",
					"target": "b",
					"inputs": map[string]any{"user_id": "u"},
				},
			},
		},
	}

	_, result := Validate(doc, testRegistry())
	if result.Valid || !hasCode(result.Errors, domain.CodeDuplicateStepID) {
		t.Errorf("expected DUPLICATE_STEP_ID for positional collision, got %v", result.Errors)
	}
}

func TestValidate_UnknownAtomID(t *testing.T) {
	doc := validDoc()
	doc["plan"].(map[string]any)["steps"].([]any)[0].(map[string]any)["id"] = "no.such.atom"

	_, result := Validate(doc, testRegistry())
	if result.Valid || !hasCode(result.Errors, domain.CodeUnknownAtomID) {
		t.Errorf("expected UNKNOWN_ATOM_ID, got %v", result.Errors)
	}
}

func TestValidate_UnknownInputField(t *testing.T) {
	doc := validDoc()
	inputs := doc["plan"].(map[string]any)["steps"].([]any)[0].(map[string]any)["inputs"].(map[string]any)
	inputs["surprise"] = "x"

	_, result := Validate(doc, testRegistry())
	if result.Valid || !hasCode(result.Errors, domain.CodeUnknownInputField) {
		t.Errorf("expected UNKNOWN_INPUT_FIELD, got %v", result.Errors)
	}
}

func TestValidate_MissingRequiredInput(t *testing.T) {
	doc := validDoc()
	delete(doc["plan"].(map[string]any)["steps"].([]any)[0].(map[string]any)["inputs"].(map[string]any), "user_id")

	_, result := Validate(doc, testRegistry())
	if result.Valid || !hasCode(result.Errors, domain.CodeMissingRequiredInput) {
		t.Errorf("expected MISSING_REQUIRED_INPUT, got %v", result.Errors)
	}
}

func TestValidate_BlankRequiredInput(t *testing.T) {
	doc := validDoc()
	doc["plan"].(map[string]any)["steps"].([]any)[0].(map[string]any)["inputs"].(map[string]any)["user_id"] = "   "

	_, result := Validate(doc, testRegistry())
	if result.Valid || !hasCode(result.Errors, domain.CodeMissingRequiredInput) {
		t.Errorf("expected MISSING_REQUIRED_INPUT for blank string, got %v", result.Errors)
	}
}

func TestValidate_NilRequiredInput(t *testing.T) {
	doc := validDoc()
	doc["plan"].(map[string]any)["steps"].([]any)[0].(map[string]any)["inputs"].(map[string]any)["user_id"] = nil

	_, result := Validate(doc, testRegistry())
	if result.Valid || !hasCode(result.Errors, domain.CodeMissingRequiredInput) {
		t.Errorf("expected MISSING_REQUIRED_INPUT for nil value, got %v", result.Errors)
	}
}

func TestValidate_NonStringRequiredInputAccepted(t *testing.T) {
	// Проверка пустоты применяется только к строкам: число проходит
	doc := validDoc()
	doc["plan"].(map[string]any)["steps"].([]any)[0].(map[string]any)["inputs"].(map[string]any)["user_id"] = 0

	_, result := Validate(doc, testRegistry())
	if !result.Valid {
		t.Errorf("numeric required input should pass, got %v", result.Errors)
	}
}

func TestValidate_RefSatisfiesRequiredInput(t *testing.T) {
	doc := map[string]any{
		"target": "t",
		"plan": map[string]any{
			"steps": []any{
				map[string]any{
					"step_id": "size",
					"id":      "common.file.get_file_size",
					"target":  "measure",
					"inputs":  map[string]any{"file_path": "/tmp/a"},
				},
				map[string]any{
					"step_id": "check",
					"id":      "globalx.permission.query_permissions",
					"target":  "check",
					"inputs":  map[string]any{"user_id": "${size.outputs.size}"},
				},
			},
		},
	}

	_, result := Validate(doc, testRegistry())
	if !result.Valid {
		t.Fatalf("ref value should satisfy required input, got %v", result.Errors)
	}

	want := []string{"size", "check"}
	if !reflect.DeepEqual(result.ExecutionOrder, want) {
		t.Errorf("expected order %v, got %v", want, result.ExecutionOrder)
	}
}

func TestValidate_UnknownDependency(t *testing.T) {
	doc := validDoc()
	doc["plan"].(map[string]any)["steps"].([]any)[1].(map[string]any)["depends_on"] = []any{"ghost"}

	_, result := Validate(doc, testRegistry())
	if result.Valid || !hasCode(result.Errors, domain.CodeUnknownDependency) {
		t.Errorf("expected UNKNOWN_DEPENDENCY, got %v", result.Errors)
	}
}

func TestValidate_UnknownStepRef(t *testing.T) {
	doc := validDoc()
	doc["plan"].(map[string]any)["steps"].([]any)[0].(map[string]any)["inputs"].(map[string]any)["user_id"] = "${ghost.outputs.x}"

	_, result := Validate(doc, testRegistry())
	if result.Valid || !hasCode(result.Errors, domain.CodeUnknownStepRef) {
		t.Errorf("expected UNKNOWN_STEP_REF, got %v", result.Errors)
	}
}

func TestValidate_UnknownOutputField(t *testing.T) {
	doc := validDoc()
	steps := doc["plan"].(map[string]any)["steps"].([]any)
	steps[1].(map[string]any)["inputs"].(map[string]any)["file_path"] = "${query_perm.outputs.no_such_output}"

	_, result := Validate(doc, testRegistry())
	if result.Valid || !hasCode(result.Errors, domain.CodeUnknownOutputField) {
		t.Errorf("expected UNKNOWN_OUTPUT_FIELD, got %v", result.Errors)
	}
}

func TestValidate_SemanticErrorsBatched(t *testing.T) {
	// Неизвестный атом, неизвестная зависимость и неизвестная ссылка
	// должны попасть в один результат
	doc := map[string]any{
		"target": "t",
		"plan": map[string]any{
			"steps": []any{
				map[string]any{
					"step_id":    "a",
					"id":         "no.such.atom",
					"target":     "x",
					"inputs":     map[string]any{},
					"depends_on": []any{"ghost"},
				},
				map[string]any{
					"step_id": "b",
					"id":      "globalx.permission.query_permissions",
					"target":  "y",
					"inputs":  map[string]any{"user_id": "${ghost.outputs.z}"},
				},
			},
		},
	}

	_, result := Validate(doc, testRegistry())
	if result.Valid {
		t.Fatal("expected invalid result")
	}

	for _, code := range []domain.ErrorCode{
		domain.CodeUnknownAtomID,
		domain.CodeUnknownDependency,
		domain.CodeUnknownStepRef,
	} {
		if !hasCode(result.Errors, code) {
			t.Errorf("expected %s among errors, got %v", code, result.Errors)
		}
	}
}

func TestValidate_CircularDependency(t *testing.T) {
	doc := map[string]any{
		"target": "t",
		"plan": map[string]any{
			"steps": []any{
				map[string]any{
					"step_id":    "a",
					"id":         "globalx.permission.query_permissions",
					"target":     "x",
					"inputs":     map[string]any{"user_id": "u"},
					"depends_on": []any{"b"},
				},
				map[string]any{
					"step_id":    "b",
					"id":         "globalx.permission.query_permissions",
					"target":     "y",
					"inputs":     map[string]any{"user_id": "u"},
					"depends_on": []any{"a"},
				},
			},
		},
	}

	_, result := Validate(doc, testRegistry())
	if result.Valid || !hasCode(result.Errors, domain.CodeCircularDependency) {
		t.Fatalf("expected CIRCULAR_DEPENDENCY, got %v", result.Errors)
	}

	msg := result.Errors[0].Message
	if !strings.Contains(msg, "a") || !strings.Contains(msg, "b") {
		t.Errorf("cycle message should name both steps: %q", msg)
	}
}

func TestValidate_ImplicitRefReordersSteps(t *testing.T) {
	// Потребитель объявлен первым; неявное ребро из ссылки должно
	// поставить производителя раньше
	doc := map[string]any{
		"target": "t",
		"plan": map[string]any{
			"steps": []any{
				map[string]any{
					"step_id": "consumer",
					"id":      "globalx.permission.query_permissions",
					"target":  "use size",
					"inputs":  map[string]any{"user_id": "${producer.outputs.size}"},
				},
				map[string]any{
					"step_id": "producer",
					"id":      "common.file.get_file_size",
					"target":  "measure",
					"inputs":  map[string]any{"file_path": "/tmp/a"},
				},
			},
		},
	}

	_, result := Validate(doc, testRegistry())
	if !result.Valid {
		t.Fatalf("expected valid plan, got %v", result.Errors)
	}

	want := []string{"producer", "consumer"}
	if !reflect.DeepEqual(result.ExecutionOrder, want) {
		t.Errorf("expected order %v, got %v", want, result.ExecutionOrder)
	}
}

func TestValidate_DeclarationOrderTieBreak(t *testing.T) {
	// Независимые шаги сохраняют порядок объявления
	doc := map[string]any{
		"target": "t",
		"plan": map[string]any{
			"steps": []any{
				map[string]any{
					"step_id": "c",
					"id":      "globalx.permission.query_permissions",
					"target":  "x",
					"inputs":  map[string]any{"user_id": "u"},
				},
				map[string]any{
					"step_id": "a",
					"id":      "globalx.permission.query_permissions",
					"target":  "y",
					"inputs":  map[string]any{"user_id": "u"},
				},
				map[string]any{
					"step_id": "b",
					"id":      "globalx.permission.query_permissions",
					"target":  "z",
					"inputs":  map[string]any{"user_id": "u"},
				},
			},
		},
	}

	_, result := Validate(doc, testRegistry())
	if !result.Valid {
		t.Fatalf("expected valid plan, got %v", result.Errors)
	}

	want := []string{"c", "a", "b"}
	if !reflect.DeepEqual(result.ExecutionOrder, want) {
		t.Errorf("expected declaration order %v, got %v", want, result.ExecutionOrder)
	}
}

func TestValidate_DiamondKeepsDeclarationOrder(t *testing.T) {
	// root → left, root → right, join ← left+right;
	// left объявлен раньше right и должен идти раньше
	doc := map[string]any{
		"target": "t",
		"plan": map[string]any{
			"steps": []any{
				map[string]any{
					"step_id": "root",
					"id":      "globalx.permission.query_permissions",
					"target":  "r",
					"inputs":  map[string]any{"user_id": "u"},
				},
				map[string]any{
					"step_id":    "left",
					"id":         "globalx.permission.query_permissions",
					"target":     "l",
					"inputs":     map[string]any{"user_id": "u"},
					"depends_on": []any{"root"},
				},
				map[string]any{
					"step_id":    "right",
					"id":         "globalx.permission.query_permissions",
					"target":     "rt",
					"inputs":     map[string]any{"user_id": "u"},
					"depends_on": []any{"root"},
				},
				map[string]any{
					"step_id":    "join",
					"id":         "globalx.permission.query_permissions",
					"target":     "j",
					"inputs":     map[string]any{"user_id": "u"},
					"depends_on": []any{"left", "right"},
				},
			},
		},
	}

	_, result := Validate(doc, testRegistry())
	if !result.Valid {
		t.Fatalf("expected valid plan, got %v", result.Errors)
	}

	want := []string{"root", "left", "right", "join"}
	if !reflect.DeepEqual(result.ExecutionOrder, want) {
		t.Errorf("expected order %v, got %v", want, result.ExecutionOrder)
	}
}

func TestValidate_Deterministic(t *testing.T) {
	reg := testRegistry()

	_, first := Validate(validDoc(), reg)
	if !first.Valid {
		t.Fatalf("expected valid plan, got %v", first.Errors)
	}

	for i := 0; i < 50; i++ {
		_, result := Validate(validDoc(), reg)
		if !reflect.DeepEqual(result.ExecutionOrder, first.ExecutionOrder) {
			t.Fatalf("run %d: order %v differs from %v", i, result.ExecutionOrder, first.ExecutionOrder)
		}
	}
}

func TestValidate_DuplicateEdgesCounted_Once(t *testing.T) {
	// Явная зависимость и ссылка на тот же шаг дают одно ребро;
	// план остаётся валидным и упорядоченным
	doc := map[string]any{
		"target": "t",
		"plan": map[string]any{
			"steps": []any{
				map[string]any{
					"step_id": "size",
					"id":      "common.file.get_file_size",
					"target":  "measure",
					"inputs":  map[string]any{"file_path": "/tmp/a"},
				},
				map[string]any{
					"step_id":    "check",
					"id":         "globalx.permission.query_permissions",
					"target":     "check",
					"inputs":     map[string]any{"user_id": "${size.outputs.size}"},
					"depends_on": []any{"size"},
				},
			},
		},
	}

	_, result := Validate(doc, testRegistry())
	if !result.Valid {
		t.Fatalf("expected valid plan, got %v", result.Errors)
	}

	want := []string{"size", "check"}
	if !reflect.DeepEqual(result.ExecutionOrder, want) {
		t.Errorf("expected order %v, got %v", want, result.ExecutionOrder)
	}
}

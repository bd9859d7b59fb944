package message

import "testing"

func TestRootIdentitySatisfiesM1(t *testing.T) {
	id := NewRootIdentity()
	if id.MessageID != id.CorrelationID || id.CorrelationID != id.CausationID {
		t.Fatalf("root identity must have message_id==correlation_id==causation_id, got %+v", id)
	}
	if err := id.Validate(true, nil); err != nil {
		t.Fatalf("expected valid root identity, got %v", err)
	}
}

func TestCausedIdentitySatisfiesM2(t *testing.T) {
	root := NewRootIdentity()
	child := NewCausedIdentity(root)

	if child.CorrelationID != root.CorrelationID {
		t.Fatalf("child correlation %s != parent correlation %s", child.CorrelationID, root.CorrelationID)
	}
	if child.CausationID != root.MessageID {
		t.Fatalf("child causation %s != parent message id %s", child.CausationID, root.MessageID)
	}
	if child.MessageID == root.MessageID {
		t.Fatalf("child message id must be fresh")
	}

	if err := child.Validate(false, &root); err != nil {
		t.Fatalf("expected valid caused identity, got %v", err)
	}
}

func TestValidateRejectsTamperedCorrelation(t *testing.T) {
	root := NewRootIdentity()
	child := NewCausedIdentity(root)
	child.CorrelationID = "replaced"

	if err := child.Validate(false, &root); err == nil {
		t.Fatal("expected MalformedCaused error after tampering with correlation id")
	}
}

func TestCreateRootAndCausedBy(t *testing.T) {
	cmd := CreateRoot("do-it", UserActor("u1"))
	evt := CreateCausedBy("it-happened", cmd.Identity, SystemActor("engine"))

	if evt.Identity.CorrelationID != cmd.Identity.CorrelationID {
		t.Fatal("event must preserve command's correlation id")
	}
	if evt.Identity.CausationID != cmd.Identity.MessageID {
		t.Fatal("event's causation id must reference the command's message id")
	}
}

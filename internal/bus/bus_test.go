package bus

import "testing"

func TestSenderSendDeliversWithinCapacity(t *testing.T) {
	ch := make(chan Event, 1)
	s := NewSender(ch)
	if !s.SendResponse(Response{Kind: RespPodTable}) {
		t.Fatalf("expected send to succeed with free capacity")
	}
	got := <-ch
	if got.Kind != EventResponse || got.Response.Kind != RespPodTable {
		t.Fatalf("unexpected event: %+v", got)
	}
}

func TestSenderSendFailsWhenChannelFull(t *testing.T) {
	ch := make(chan Event, 1)
	s := NewSender(ch)
	s.SendResponse(Response{Kind: RespPodTable})
	if s.SendResponse(Response{Kind: RespPodTable}) {
		t.Fatalf("expected send to fail on a full channel rather than block")
	}
}

func TestCompileFilterDelegatesToFilterPackage(t *testing.T) {
	attrs, err := CompileFilter("pod:web")
	if err != nil || len(attrs) != 1 {
		t.Fatalf("unexpected result: %+v err=%v", attrs, err)
	}
}

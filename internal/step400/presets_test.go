package step400

import (
	"testing"

	"github.com/leandrodaf/ponmachine/sdk/contracts"
)

func TestMoveToClosePosition(t *testing.T) {
	c, conn := newTestController(t)

	c.MoveToClosePosition(1)

	msgs := conn.messages(t)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 datagrams, got %d", len(msgs))
	}
	if msgs[0].Address != "/setTval" || !equalInts(ints(msgs[0].Args), []int32{1, 2, 60, 60, 60}) {
		t.Errorf("torque = %s %v", msgs[0].Address, msgs[0].Args)
	}
	if msgs[1].Address != "/setSpeedProfile" || msgs[1].Args[3].Float != 400 {
		t.Errorf("speed = %s %v", msgs[1].Address, msgs[1].Args)
	}
	if msgs[2].Address != "/goTo" || !equalInts(ints(msgs[2].Args), []int32{1, -3900}) {
		t.Errorf("target = %s %v", msgs[2].Address, msgs[2].Args)
	}
}

func TestMoveToOpenPosition(t *testing.T) {
	c, conn := newTestController(t)

	c.MoveToOpenPosition(2)

	msgs := conn.messages(t)
	if len(msgs) != 3 {
		t.Fatalf("expected 3 datagrams, got %d", len(msgs))
	}
	if !equalInts(ints(msgs[0].Args), []int32{2, 2, 9, 9, 9}) {
		t.Errorf("torque args = %v", msgs[0].Args)
	}
	if msgs[1].Args[3].Float != 900 {
		t.Errorf("speed = %v", msgs[1].Args[3].Float)
	}
	if msgs[2].Address != "/goTo" || !equalInts(ints(msgs[2].Args), []int32{2, 0}) {
		t.Errorf("target = %s %v", msgs[2].Address, msgs[2].Args)
	}
}

func TestCloseProfileIsMotorSpecific(t *testing.T) {
	p1, ok1 := CloseProfile(1)
	p2, ok2 := CloseProfile(2)
	if !ok1 || !ok2 {
		t.Fatal("motors 1 and 2 must have close profiles")
	}
	if p1.Target >= 0 || p2.Target >= 0 {
		t.Fatalf("close targets must be negative: %d %d", p1.Target, p2.Target)
	}
	if p1.Torque != p2.Torque || p1.Speed != p2.Speed {
		t.Fatal("close torque and speed are shared")
	}
	if _, ok := CloseProfile(3); ok {
		t.Fatal("motor 3 has no close position")
	}
}

func TestMoveToCloseWithoutProfileSendsNothing(t *testing.T) {
	c, conn := newTestController(t)
	c.MoveToClosePosition(contracts.MotorID(3))
	c.MoveToOpenPosition(contracts.MotorID(9))
	if n := conn.count(); n != 0 {
		t.Fatalf("expected no datagrams, got %d", n)
	}
}

package roomdoor

import (
	"testing"
	"time"

	"go-elevator-door-simulator/pkg/bus"
	"go-elevator-door-simulator/pkg/world"
)

func TestPlugin_FollowsRosterAndCommands(t *testing.T) {
	w := world.New()
	w.AddModel("door_1", world.NewPose(0, 0, 0), LinkName)
	w.AddModel("door_2", world.NewPose(5, 0, 0), LinkName)
	b := bus.New(nil)

	slide := Params{DoorType: strPtr("slide"), DoorDirection: strPtr("left")}
	p1, err := Load(w, b, "door_1", slide, nil)
	if err != nil {
		t.Fatalf("Load door_1 failed: %v", err)
	}
	defer p1.Close()
	p2, err := Load(w, b, "door_2", slide, nil)
	if err != nil {
		t.Fatalf("Load door_2 failed: %v", err)
	}
	defer p2.Close()

	// Only door 2 is active.
	b.Publish(bus.TopicDoorActive, []uint32{2})
	b.Publish(bus.TopicDoorCommand, bus.Twist{LinearX: -1, LinearY: -1})

	for i := 0; i < 10; i++ {
		p1.Update(100 * time.Millisecond)
		p2.Update(100 * time.Millisecond)
		w.Step(100 * time.Millisecond)
		p1.Constrain()
		p2.Constrain()
	}

	d1, _ := w.ModelByName("door_1")
	d2, _ := w.ModelByName("door_2")
	if p := d1.WorldPose().Pos; p.X != 0 {
		t.Errorf("Expected inactive door 1 to stay closed, got %+v", p)
	}
	if p := d2.WorldPose().Pos; p.X != p2.Controller().Bounds().MaxX {
		t.Errorf("Expected door 2 fully open, got %+v", p)
	}
}

func TestLoad_MissingLink(t *testing.T) {
	w := world.New()
	w.AddModel("door_1", world.NewPose(0, 0, 0), "frame")
	if _, err := Load(w, bus.New(nil), "door_1", Params{}, nil); err == nil {
		t.Error("Expected error for missing door link, got nil")
	}
}

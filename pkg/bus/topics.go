package bus

// Topic names are fixed and shared with the elevator controller side.
const (
	TopicTargetFloor = "/elevator_controller/target_floor"
	TopicDoor        = "/elevator_controller/door"
	TopicActive      = "/elevator_controller/active"
	TopicParam       = "/elevator_controller/param"

	TopicDoorCommand = "/door_controller/command"
	TopicDoorActive  = "/door_controller/active"

	// ParamElevatorDomainSpace is written by the elevator plugin and read by
	// every automatic door.
	ParamElevatorDomainSpace = "/model_dynamics_manager/elevator_domain_space"
)

// EstimatedFloorTopic is the per-elevator estimated floor topic.
func EstimatedFloorTopic(elevatorName string) string {
	return "/elevator_controller/" + elevatorName + "/estimated_current_floor"
}

// Door command wire values carried on TopicDoor as uint8.
const (
	DoorCommandClose uint8 = 0 // 0: 강제 닫힘
	DoorCommandOpen  uint8 = 1 // 1: 강제 열림
	DoorCommandFree  uint8 = 2 // 2: 자동 동작
)

// Twist is a velocity command for general doors: sliding doors use the
// linear part, flip doors the angular one.
// Twist는 일반 문을 위한 속도 명령입니다.
type Twist struct {
	LinearX  float64 `json:"linearX"`
	LinearY  float64 `json:"linearY"`
	AngularZ float64 `json:"angularZ"`
}

// Payload types per topic:
//
//	TopicTargetFloor     int32
//	EstimatedFloorTopic  int32
//	TopicDoor            uint8
//	TopicActive          []uint32
//	TopicParam           []float32 ([speed, force])
//	TopicDoorCommand     Twist
//	TopicDoorActive      []uint32

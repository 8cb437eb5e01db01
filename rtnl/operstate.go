package rtnl

import "fmt"

// OperState is the RFC 2863 IF_OPER_* operational state of a link
// (uapi/linux/if.h). Modeled on the teacher's tcp.State: a small int enum
// with a total String() method built off a name table.
type OperState uint8

const (
	OperUnknown        OperState = 0
	OperNotPresent     OperState = 1
	OperDown           OperState = 2
	OperLowerLayerDown OperState = 3
	OperTesting        OperState = 4
	OperDormant        OperState = 5
	OperUp             OperState = 6
)

var operStateName = map[OperState]string{
	OperUnknown:        "UNKNOWN",
	OperNotPresent:     "NOTPRESENT",
	OperDown:           "DOWN",
	OperLowerLayerDown: "LOWERLAYERDOWN",
	OperTesting:        "TESTING",
	OperDormant:        "DORMANT",
	OperUp:             "UP",
}

func (s OperState) String() string {
	if n, ok := operStateName[s]; ok {
		return n
	}
	return fmt.Sprintf("OPERSTATE_%d", uint8(s))
}

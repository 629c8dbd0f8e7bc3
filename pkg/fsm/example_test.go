package fsm_test

import (
	"errors"
	"fmt"

	"github.com/aretw0/automaton/pkg/fsm"
)

func ExampleAutomaton_Fire() {
	a := fsm.New().
		StartFrom("locked").
		When("coin").Doing("unlock").GoIn("unlocked").
		When("push").GoIn("locked").
		ComingFrom("unlocked").
		When("push").Doing("lock").GoIn("locked")

	for _, event := range []string{"push", "coin", "push", "run"} {
		action, err := a.Fire(event)
		if errors.Is(err, fsm.ErrIllegalEvent) {
			fmt.Println("rejected:", err)
			continue
		}
		fmt.Printf("%s -> action=%q state=%s\n", event, action, a.CurrentState())
	}
	// Output:
	// push -> action="" state=locked
	// coin -> action="unlock" state=unlocked
	// push -> action="lock" state=locked
	// rejected: event "run" not supported in state "locked"
}

func ExampleState_Dump() {
	idle := fsm.NewState("idle")
	busy := fsm.NewState("busy")
	idle.When("start").Do("spawn").GoIn(busy)
	busy.When("done").GoIn(idle)

	data, _ := idle.Dump()
	fmt.Println(string(data))
	// Output:
	// [["idle","start","spawn","busy"],["busy","done",null,"idle"]]
}

package engine

import (
	"testing"

	"github.com/m-lab/netstack/rtnl"
)

func TestValidateFailsWhenNothingTrackedOrCallbacked(t *testing.T) {
	o := Options{NoTrackLinks: true, NoTrackAddrs: true, NoTrackRoutes: true, NoTrackNeighs: true}
	if err := o.validate(); err != ErrNoWork {
		t.Errorf("validate() = %v, want ErrNoWork", err)
	}
}

func TestValidateSucceedsWithOnlyACallback(t *testing.T) {
	o := Options{
		NoTrackLinks: true, NoTrackAddrs: true, NoTrackRoutes: true, NoTrackNeighs: true,
		OnLink: func(*rtnl.Event) {},
	}
	if err := o.validate(); err != nil {
		t.Errorf("validate() = %v, want nil", err)
	}
}

func TestValidateSucceedsByDefault(t *testing.T) {
	var o Options
	if err := o.validate(); err != nil {
		t.Errorf("validate() = %v, want nil", err)
	}
}

package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID scopes the machine ID so it can't be correlated with other apps.
const AppID = "dualdrive"

// MachineID retrieves the unique ID identifying the machine, "local" when
// the platform provides none.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		glog.Warningf("machine id: %v", err)
		return "local"
	}
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}

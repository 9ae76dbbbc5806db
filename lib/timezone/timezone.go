package timezone

import (
	"time"
	_ "time/tzdata"
)

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Ho_Chi_Minh")
	if err != nil {
		panic(err)
	}
}

// Now returns the current time in the portal's timezone, hosts are not
// guaranteed to run in Vietnam.
func Now() time.Time {
	return time.Now().In(Location)
}

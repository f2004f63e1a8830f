package health

import "strconv"

// RegistrySnapshot reports the published client registry: its generation,
// its client count, and whether any generation has been published yet.
type RegistrySnapshot func() (generation uint64, clients int, published bool)

// RegistryCheck reports unhealthy until a registry generation is published.
func RegistryCheck(snapshot RegistrySnapshot) CheckFunc {
	return func() Check {
		if snapshot == nil {
			return Check{Status: StatusUnhealthy, Message: "client registry not configured"}
		}

		generation, clients, published := snapshot()
		if !published {
			return Check{Status: StatusUnhealthy, Message: "client registry not published"}
		}

		check := Check{
			Status: StatusHealthy,
			Details: map[string]string{
				"generation": strconv.FormatUint(generation, 10),
				"clients":    strconv.Itoa(clients),
			},
		}
		if clients == 0 {
			check.Status = StatusDegraded
			check.Message = "client registry is empty"
		}
		return check
	}
}

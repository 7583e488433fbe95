package actuation

import "math"

const halfPi = math.Pi / 2

// Params tunes the thruster translator, rotation controller and brake.
type Params struct {
	SteeringDeadBand  float64 `json:"steeringDeadBand" mapstructure:"steeringDeadBand"`
	VelocityDeadBand  float64 `json:"velocityDeadBand" mapstructure:"velocityDeadBand"`
	BrakeThreat       float64 `json:"brakeThreat" mapstructure:"brakeThreat"`
	ThreatSpeedDerate float64 `json:"threatSpeedDerate" mapstructure:"threatSpeedDerate"`
	DodgeScale        float64 `json:"dodgeScale" mapstructure:"dodgeScale"`

	BrakeCoefficient float64 `json:"brakeCoefficient" mapstructure:"brakeCoefficient"`
	BrakeRest        float64 `json:"brakeRest" mapstructure:"brakeRest"`

	AngularDamping  float64 `json:"angularDamping" mapstructure:"angularDamping"`
	AngularRest     float64 `json:"angularRest" mapstructure:"angularRest"`
	HeadingDeadZone float64 `json:"headingDeadZone" mapstructure:"headingDeadZone"`
	TorqueScale     float64 `json:"torqueScale" mapstructure:"torqueScale"`
	MinTorqueRatio  float64 `json:"minTorqueRatio" mapstructure:"minTorqueRatio"`
	AngularCeiling  float64 `json:"angularCeiling" mapstructure:"angularCeiling"`
	FacingSpeedSq   float64 `json:"facingSpeedSq" mapstructure:"facingSpeedSq"`
}

// DefaultParams returns the tuning the simulator ships with.
func DefaultParams() Params {
	return Params{
		SteeringDeadBand:  0.1,
		VelocityDeadBand:  0.5,
		BrakeThreat:       0.3,
		ThreatSpeedDerate: 0.9,
		DodgeScale:        0.5,
		BrakeCoefficient:  1.5,
		BrakeRest:         0.1,
		AngularDamping:    0.6,
		AngularRest:       0.01,
		HeadingDeadZone:   0.15,
		TorqueScale:       0.25,
		MinTorqueRatio:    0.1,
		AngularCeiling:    0.7,
		FacingSpeedSq:     1.0,
	}
}

// TargetSpeed caps maxSpeed by the current threat level.
func (p Params) TargetSpeed(maxSpeed, threat float64) float64 {
	return maxSpeed * (1 - clamp01(threat)*p.ThreatSpeedDerate)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

package features

// Derived feature names. These are the exact names model feature
// schemas refer to; renaming any of them breaks train/serve parity.
const (
	FeatTemperature  = "temperature"
	FeatVibration    = "vibration"
	FeatPressure     = "pressure"
	FeatSpeed        = "speed"
	FeatRuntimeHours = "runtime_hours"

	FeatHour       = "hour"
	FeatDayOfWeek  = "day_of_week"
	FeatDayOfMonth = "day_of_month"

	FeatTemperatureLag1 = "temperature_lag1"
	FeatVibrationLag1   = "vibration_lag1"
	FeatPressureLag1    = "pressure_lag1"
	FeatSpeedLag1       = "speed_lag1"

	FeatTemperatureChange = "temperature_change"
	FeatVibrationChange   = "vibration_change"
	FeatPressureChange    = "pressure_change"
	FeatSpeedChange       = "speed_change"

	FeatTemperatureRollingMean = "temperature_rolling_mean"
	FeatVibrationRollingMean   = "vibration_rolling_mean"
	FeatPressureRollingMean    = "pressure_rolling_mean"

	FeatTemperatureRollingStd = "temperature_rolling_std"
	FeatVibrationRollingStd   = "vibration_rolling_std"
	FeatPressureRollingStd    = "pressure_rolling_std"

	FeatTempVibrationInteraction = "temp_vibration_interaction"
	FeatPressureSpeedRatio       = "pressure_speed_ratio"
)

// laggedChannels are the channels that get lag-1 and change features
var laggedChannels = []string{
	FeatTemperature, FeatVibration, FeatPressure, FeatSpeed,
}

// rollingChannels are the channels that get rolling mean/std features
var rollingChannels = []string{
	FeatTemperature, FeatVibration, FeatPressure,
}

// All enumerates every feature the engine derives, in a fixed order
var All = []string{
	FeatTemperature, FeatVibration, FeatPressure, FeatSpeed, FeatRuntimeHours,
	FeatHour, FeatDayOfWeek, FeatDayOfMonth,
	FeatTemperatureLag1, FeatVibrationLag1, FeatPressureLag1, FeatSpeedLag1,
	FeatTemperatureChange, FeatVibrationChange, FeatPressureChange, FeatSpeedChange,
	FeatTemperatureRollingMean, FeatVibrationRollingMean, FeatPressureRollingMean,
	FeatTemperatureRollingStd, FeatVibrationRollingStd, FeatPressureRollingStd,
	FeatTempVibrationInteraction, FeatPressureSpeedRatio,
}

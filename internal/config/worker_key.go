package config

type WorkerKeyStruct struct {
	AttendanceRecordedQueue string
}

var WorkerKey = &WorkerKeyStruct{
	AttendanceRecordedQueue: "attendance_recorded_queue",
}

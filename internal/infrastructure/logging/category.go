package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	IO              Category = "IO"
	Internal        Category = "Internal"
	MongoDB         Category = "MongoDB"
	Redis           Category = "Redis"
	RabbitMQ        Category = "RabbitMQ"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
	Prometheus      Category = "Prometheus"
	Socket          Category = "Socket"
	Session         Category = "Session"
	Incident        Category = "Incident"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"

	// Socket
	Connect    SubCategory = "Connect"
	Disconnect SubCategory = "Disconnect"
	Decode     SubCategory = "Decode"
	Delivery   SubCategory = "Delivery"

	// Session
	CreateRoom SubCategory = "CreateRoom"
	JoinRoom   SubCategory = "JoinRoom"
	CloseRoom  SubCategory = "CloseRoom"
	Detection  SubCategory = "Detection"
	Publish    SubCategory = "Publish"
	Audit      SubCategory = "Audit"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	HostIp       ExtraKey = "HostIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	BodySize     ExtraKey = "BodySize"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	RequestBody  ExtraKey = "RequestBody"
	ResponseBody ExtraKey = "ResponseBody"
	ErrorMessage ExtraKey = "ErrorMessage"

	EndpointID    ExtraKey = "EndpointId"
	RoomCode      ExtraKey = "RoomCode"
	UserName      ExtraKey = "UserName"
	EventType     ExtraKey = "EventType"
	ParticipantID ExtraKey = "ParticipantId"
	IncidentKind  ExtraKey = "IncidentKind"
)

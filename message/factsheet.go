package message

import (
	"fmt"

	"github.com/zeki-aitech/vda5050-client/errors"
)

// AGVKinematic is the simplified kinematics type of the vehicle.
type AGVKinematic string

const (
	KinematicDiff       AGVKinematic = "DIFF"
	KinematicOmni       AGVKinematic = "OMNI"
	KinematicThreeWheel AGVKinematic = "THREEWHEEL"
)

// AGVClass is the simplified class of the vehicle.
type AGVClass string

const (
	ClassForklift AGVClass = "FORKLIFT"
	ClassConveyor AGVClass = "CONVEYOR"
	ClassTugger   AGVClass = "TUGGER"
	ClassCarrier  AGVClass = "CARRIER"
)

// LocalizationType is one localization technique the vehicle supports.
type LocalizationType string

const (
	LocalizationNatural   LocalizationType = "NATURAL"
	LocalizationReflector LocalizationType = "REFLECTOR"
	LocalizationRFID      LocalizationType = "RFID"
	LocalizationDMC       LocalizationType = "DMC"
	LocalizationSpot      LocalizationType = "SPOT"
	LocalizationGrid      LocalizationType = "GRID"
)

// NavigationType is one path planning capability of the vehicle.
type NavigationType string

const (
	NavigationPhysicalLineGuided NavigationType = "PHYSICAL_LINE_GUIDED"
	NavigationVirtualLineGuided  NavigationType = "VIRTUAL_LINE_GUIDED"
	NavigationAutonomous         NavigationType = "AUTONOMOUS"
)

// TypeSpecification classifies the AGV series and its capabilities.
type TypeSpecification struct {
	SeriesName        string             `json:"seriesName"`
	SeriesDescription string             `json:"seriesDescription,omitempty"`
	AGVKinematic      AGVKinematic       `json:"agvKinematic"`
	AGVClass          AGVClass           `json:"agvClass"`
	MaxLoadMass       float64            `json:"maxLoadMass"`
	LocalizationTypes []LocalizationType `json:"localizationTypes"`
	NavigationTypes   []NavigationType   `json:"navigationTypes"`
}

// PhysicalParameters are the basic physical properties of the AGV.
type PhysicalParameters struct {
	SpeedMin        float64  `json:"speedMin"`
	SpeedMax        float64  `json:"speedMax"`
	AccelerationMax float64  `json:"accelerationMax"`
	DecelerationMax float64  `json:"decelerationMax"`
	HeightMin       *float64 `json:"heightMin,omitempty"`
	HeightMax       float64  `json:"heightMax"`
	Width           float64  `json:"width"`
	Length          float64  `json:"length"`
}

// MaxStringLens caps string lengths the AGV can process. Zero or absent
// means no explicit limit.
type MaxStringLens struct {
	MsgLen          *int  `json:"msgLen,omitempty"`
	TopicSerialLen  *int  `json:"topicSerialLen,omitempty"`
	TopicElemLen    *int  `json:"topicElemLen,omitempty"`
	IDLen           *int  `json:"idLen,omitempty"`
	IDNumericalOnly *bool `json:"idNumericalOnly,omitempty"`
	EnumLen         *int  `json:"enumLen,omitempty"`
	LoadIDLen       *int  `json:"loadIdLen,omitempty"`
}

// MaxArrayLens caps array sizes the AGV can process. The dotted JSON keys
// come from the protocol.
type MaxArrayLens struct {
	OrderNodes                *int `json:"order.nodes,omitempty"`
	OrderEdges                *int `json:"order.edges,omitempty"`
	NodeActions               *int `json:"node.actions,omitempty"`
	EdgeActions               *int `json:"edge.actions,omitempty"`
	ActionsActionsParameters  *int `json:"actions.actionsParameters,omitempty"`
	InstantActions            *int `json:"instantActions,omitempty"`
	TrajectoryKnotVector      *int `json:"trajectory.knotVector,omitempty"`
	TrajectoryControlPoints   *int `json:"trajectory.controlPoints,omitempty"`
	StateNodeStates           *int `json:"state.nodeStates,omitempty"`
	StateEdgeStates           *int `json:"state.edgeStates,omitempty"`
	StateLoads                *int `json:"state.loads,omitempty"`
	StateActionStates         *int `json:"state.actionStates,omitempty"`
	StateErrors               *int `json:"state.errors,omitempty"`
	StateInformation          *int `json:"state.information,omitempty"`
	ErrorErrorReferences      *int `json:"error.errorReferences,omitempty"`
	InformationInfoReferences *int `json:"information.infoReferences,omitempty"`
}

// Timing declares the message intervals the AGV expects and produces, in
// seconds.
type Timing struct {
	MinOrderInterval      float64  `json:"minOrderInterval"`
	MinStateInterval      float64  `json:"minStateInterval"`
	DefaultStateInterval  *float64 `json:"defaultStateInterval,omitempty"`
	VisualizationInterval *float64 `json:"visualizationInterval,omitempty"`
}

// ProtocolLimits describes the protocol limitations of the AGV.
type ProtocolLimits struct {
	MaxStringLens MaxStringLens `json:"maxStringLens"`
	MaxArrayLens  MaxArrayLens  `json:"maxArrayLens"`
	Timing        Timing        `json:"timing"`
}

// Support grades an optional protocol parameter.
type Support string

const (
	SupportSupported Support = "SUPPORTED"
	SupportRequired  Support = "REQUIRED"
)

// OptionalParameter declares support for one optional protocol parameter,
// named by its full path, e.g. "order.nodes.nodePosition.allowedDeviationTheta".
type OptionalParameter struct {
	Parameter   string  `json:"parameter"`
	Support     Support `json:"support"`
	Description string  `json:"description,omitempty"`
}

// ActionScope is a context the action may be used in.
type ActionScope string

const (
	ScopeInstant ActionScope = "INSTANT"
	ScopeNode    ActionScope = "NODE"
	ScopeEdge    ActionScope = "EDGE"
)

// ValueDataType is the declared data type of an action parameter value.
type ValueDataType string

const (
	DataTypeBool    ValueDataType = "BOOL"
	DataTypeNumber  ValueDataType = "NUMBER"
	DataTypeInteger ValueDataType = "INTEGER"
	DataTypeFloat   ValueDataType = "FLOAT"
	DataTypeString  ValueDataType = "STRING"
	DataTypeObject  ValueDataType = "OBJECT"
	DataTypeArray   ValueDataType = "ARRAY"
)

// AGVActionParameter declares one parameter of a supported action.
type AGVActionParameter struct {
	Key           string        `json:"key"`
	ValueDataType ValueDataType `json:"valueDataType"`
	Description   string        `json:"description,omitempty"`
	IsOptional    *bool         `json:"isOptional,omitempty"`
}

// AGVAction declares one action type the vehicle supports, standard or
// manufacturer-specific.
type AGVAction struct {
	ActionType        string               `json:"actionType"`
	ActionDescription string               `json:"actionDescription,omitempty"`
	ActionScopes      []ActionScope        `json:"actionScopes"`
	ActionParameters  []AGVActionParameter `json:"actionParameters,omitempty"`
	ResultDescription string               `json:"resultDescription,omitempty"`
	BlockingTypes     []BlockingType       `json:"blockingTypes,omitempty"`
}

// ProtocolFeatures lists the optional parameters and actions the vehicle
// supports.
type ProtocolFeatures struct {
	OptionalParameters []OptionalParameter `json:"optionalParameters"`
	AGVActions         []AGVAction         `json:"agvActions"`
}

// WheelType is the mechanical type of one wheel.
type WheelType string

const (
	WheelDrive   WheelType = "DRIVE"
	WheelCaster  WheelType = "CASTER"
	WheelFixed   WheelType = "FIXED"
	WheelMecanum WheelType = "MECANUM"
)

// WheelPosition is a wheel position in the AGV coordinate system.
type WheelPosition struct {
	X     float64  `json:"x"`
	Y     float64  `json:"y"`
	Theta *float64 `json:"theta,omitempty"`
}

// WheelDefinition describes one wheel's arrangement and geometry.
type WheelDefinition struct {
	Type               WheelType     `json:"type"`
	IsActiveDriven     bool          `json:"isActiveDriven"`
	IsActiveSteered    bool          `json:"isActiveSteered"`
	Position           WheelPosition `json:"position"`
	Diameter           float64       `json:"diameter"`
	Width              float64       `json:"width"`
	CenterDisplacement *float64      `json:"centerDisplacement,omitempty"`
	Constraints        string        `json:"constraints,omitempty"`
}

// PolygonPoint is one vertex of a 2D envelope polygon.
type PolygonPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Envelope2D is a named 2D envelope curve of the vehicle.
type Envelope2D struct {
	Set           string         `json:"set"`
	PolygonPoints []PolygonPoint `json:"polygonPoints"`
	Description   string         `json:"description,omitempty"`
}

// Envelope3D is a named 3D envelope curve, either embedded or linked.
type Envelope3D struct {
	Set         string         `json:"set"`
	Format      string         `json:"format"`
	Data        map[string]any `json:"data,omitempty"`
	URL         string         `json:"url,omitempty"`
	Description string         `json:"description,omitempty"`
}

// AGVGeometry is the detailed geometry of the vehicle.
type AGVGeometry struct {
	WheelDefinitions []WheelDefinition `json:"wheelDefinitions,omitempty"`
	Envelopes2D      []Envelope2D      `json:"envelopes2d,omitempty"`
	Envelopes3D      []Envelope3D      `json:"envelopes3d,omitempty"`
}

// LoadSet describes one class of loads the vehicle can handle.
type LoadSet struct {
	SetName               string                `json:"setName"`
	LoadType              string                `json:"loadType"`
	LoadPositions         []string              `json:"loadPositions,omitempty"`
	BoundingBoxReference  *BoundingBoxReference `json:"boundingBoxReference,omitempty"`
	LoadDimensions        *LoadDimensions       `json:"loadDimensions,omitempty"`
	MaxWeight             *float64              `json:"maxWeight,omitempty"`
	MinLoadhandlingHeight *float64              `json:"minLoadhandlingHeight,omitempty"`
	MaxLoadhandlingHeight *float64              `json:"maxLoadhandlingHeight,omitempty"`
	MinLoadhandlingDepth  *float64              `json:"minLoadhandlingDepth,omitempty"`
	MaxLoadhandlingDepth  *float64              `json:"maxLoadhandlingDepth,omitempty"`
	MinLoadhandlingTilt   *float64              `json:"minLoadhandlingTilt,omitempty"`
	MaxLoadhandlingTilt   *float64              `json:"maxLoadhandlingTilt,omitempty"`
	AGVSpeedLimit         *float64              `json:"agvSpeedLimit,omitempty"`
	AGVAccelerationLimit  *float64              `json:"agvAccelerationLimit,omitempty"`
	AGVDecelerationLimit  *float64              `json:"agvDecelerationLimit,omitempty"`
	PickTime              *float64              `json:"pickTime,omitempty"`
	DropTime              *float64              `json:"dropTime,omitempty"`
	Description           string                `json:"description,omitempty"`
}

// LoadSpecification is the abstract load capability of the vehicle.
type LoadSpecification struct {
	LoadPositions []string  `json:"loadPositions,omitempty"`
	LoadSets      []LoadSet `json:"loadSets,omitempty"`
}

// VersionEntry is one hardware or software version running on the vehicle.
type VersionEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Network is the a-priori network configuration of the vehicle.
type Network struct {
	DNSServers     []string `json:"dnsServers,omitempty"`
	LocalIPAddress string   `json:"localIpAddress,omitempty"`
	NTPServers     []string `json:"ntpServers,omitempty"`
	Netmask        string   `json:"netmask,omitempty"`
	DefaultGateway string   `json:"defaultGateway,omitempty"`
}

// VehicleConfig collects versions and network settings of the vehicle.
type VehicleConfig struct {
	Versions []VersionEntry `json:"versions,omitempty"`
	Network  *Network       `json:"network,omitempty"`
}

// Factsheet describes the capabilities of one AGV type: class, physics,
// protocol limits and features, geometry and load handling. AGVs publish it
// retained on connect and on factsheetRequest.
type Factsheet struct {
	Header
	TypeSpecification  TypeSpecification  `json:"typeSpecification"`
	PhysicalParameters PhysicalParameters `json:"physicalParameters"`
	ProtocolLimits     ProtocolLimits     `json:"protocolLimits"`
	ProtocolFeatures   ProtocolFeatures   `json:"protocolFeatures"`
	AGVGeometry        AGVGeometry        `json:"agvGeometry"`
	LoadSpecification  LoadSpecification  `json:"loadSpecification"`
	VehicleConfig      *VehicleConfig     `json:"vehicleConfig,omitempty"`
}

// MessageType implements Message.
func (f *Factsheet) MessageType() Type { return TypeFactsheet }

// Validate implements Message.
func (f *Factsheet) Validate() error {
	if f.TypeSpecification.SeriesName == "" {
		return fmt.Errorf("factsheet missing seriesName: %w", errors.ErrInvalidMessage)
	}
	if f.TypeSpecification.AGVKinematic == "" {
		return fmt.Errorf("factsheet missing agvKinematic: %w", errors.ErrInvalidMessage)
	}
	if f.TypeSpecification.AGVClass == "" {
		return fmt.Errorf("factsheet missing agvClass: %w", errors.ErrInvalidMessage)
	}
	for i := range f.ProtocolFeatures.AGVActions {
		a := &f.ProtocolFeatures.AGVActions[i]
		if a.ActionType == "" {
			return fmt.Errorf("factsheet agvAction %d missing actionType: %w", i, errors.ErrInvalidMessage)
		}
		if len(a.ActionScopes) == 0 {
			return fmt.Errorf("factsheet action %q has no scopes: %w", a.ActionType, errors.ErrInvalidMessage)
		}
	}
	return nil
}

// VisualizationInterval returns the factsheet's visualization publish
// interval, or the given fallback when the factsheet does not declare one.
func (f *Factsheet) VisualizationInterval(fallback float64) float64 {
	if v := f.ProtocolLimits.Timing.VisualizationInterval; v != nil && *v > 0 {
		return *v
	}
	return fallback
}

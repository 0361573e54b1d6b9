package loaders

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/df07/go-sphere-raytracer/pkg/core"
)

// PBRTStatement represents a parsed PBRT statement
type PBRTStatement struct {
	Type          string               // Statement type (Camera, Material, Shape, etc.)
	Subtype       string               // Subtype (perspective, diffuse, sphere, etc.)
	Parameters    map[string]PBRTParam // Named parameters
	MaterialIndex int                  // For shapes: index into PBRTScene.Materials (-1 = default material)
	Offset        core.Vec3            // For shapes: accumulated translation
}

// PBRTParam represents a parameter with type and value(s)
type PBRTParam struct {
	Type   string   // Parameter type (float, rgb, point3, etc.)
	Values []string // Parameter values as strings
}

// PBRTScene contains the parsed statements of a sphere-only PBRT subset
type PBRTScene struct {
	// Pre-WorldBegin statements
	Camera     *PBRTStatement
	LookAt     *core.Vec3 // Eye position
	LookAtTo   *core.Vec3 // Look at target
	LookAtUp   *core.Vec3 // Up vector
	Film       *PBRTStatement
	Sampler    *PBRTStatement
	Integrator *PBRTStatement

	// World content
	Materials []PBRTStatement
	Shapes    []PBRTStatement
}

// GraphicsState is the part of the PBRT graphics state that spheres can use
type GraphicsState struct {
	MaterialIndex int       // Current material index
	Translation   core.Vec3 // Current translation
}

// PBRTParser encapsulates the state and logic for parsing PBRT files
type PBRTParser struct {
	scene          *PBRTScene
	state          GraphicsState
	stateStack     []GraphicsState
	inWorld        bool
	statementLines []string
}

// ParsePBRT parses PBRT content from an io.Reader
func ParsePBRT(reader io.Reader) (*PBRTScene, error) {
	parser := NewPBRTParser()

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		if err := parser.processLine(scanner.Text()); err != nil {
			return nil, err
		}
	}

	// Process any remaining accumulated statements
	if err := parser.finalize(); err != nil {
		return nil, err
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	return parser.scene, nil
}

// LoadPBRT loads and parses a PBRT scene file
func LoadPBRT(filename string) (*PBRTScene, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PBRT file: %w", err)
	}
	defer file.Close()

	return ParsePBRT(file)
}

// NewPBRTParser creates a new PBRT parser instance
func NewPBRTParser() *PBRTParser {
	return &PBRTParser{
		scene: &PBRTScene{
			Materials: make([]PBRTStatement, 0),
			Shapes:    make([]PBRTStatement, 0),
		},
		state: GraphicsState{MaterialIndex: -1},
	}
}

// processAccumulatedStatement processes any accumulated statement lines and clears them
func (p *PBRTParser) processAccumulatedStatement(context string) error {
	if len(p.statementLines) > 0 {
		fullStatement := strings.Join(p.statementLines, " ")
		p.statementLines = nil
		stmt, err := parseStatement(fullStatement)
		if err != nil {
			return fmt.Errorf("error parsing statement %s '%s': %w", context, fullStatement, err)
		}
		if err := p.routeStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

// processAttributeBegin saves the graphics state
func (p *PBRTParser) processAttributeBegin() error {
	if err := p.processAccumulatedStatement("before AttributeBegin"); err != nil {
		return err
	}
	p.stateStack = append(p.stateStack, p.state)
	return nil
}

// processAttributeEnd restores the graphics state saved by the matching AttributeBegin
func (p *PBRTParser) processAttributeEnd() error {
	if err := p.processAccumulatedStatement("before AttributeEnd"); err != nil {
		return err
	}
	if len(p.stateStack) == 0 {
		return fmt.Errorf("AttributeEnd without matching AttributeBegin")
	}
	p.state = p.stateStack[len(p.stateStack)-1]
	p.stateStack = p.stateStack[:len(p.stateStack)-1]
	return nil
}

// processLine processes a single line of PBRT input
func (p *PBRTParser) processLine(line string) error {
	line = strings.TrimSpace(line)

	// Skip empty lines and comments
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	// Handle special directives
	switch line {
	case "WorldBegin":
		if err := p.processAccumulatedStatement("before WorldBegin"); err != nil {
			return err
		}
		p.inWorld = true
		p.state.Translation = core.Vec3{} // The world starts untransformed
		return nil
	case "WorldEnd":
		if err := p.processAccumulatedStatement("before WorldEnd"); err != nil {
			return err
		}
		p.inWorld = false
		return nil
	case "AttributeBegin":
		return p.processAttributeBegin()
	case "AttributeEnd":
		return p.processAttributeEnd()
	}

	// Check if this line starts a new statement or continues the previous one
	if isStatementStart(line) {
		if err := p.processAccumulatedStatement(""); err != nil {
			return err
		}
		p.statementLines = []string{line}
	} else {
		if len(p.statementLines) == 0 {
			return fmt.Errorf("unexpected continuation line: %s", line)
		}
		p.statementLines = append(p.statementLines, line)
	}

	return nil
}

// finalize processes any remaining accumulated statements
func (p *PBRTParser) finalize() error {
	if err := p.processAccumulatedStatement("at end of file"); err != nil {
		return err
	}
	if len(p.stateStack) != 0 {
		return fmt.Errorf("%d unclosed AttributeBegin blocks", len(p.stateStack))
	}
	return nil
}

// routeStatement applies a parsed statement to the scene or the graphics state
func (p *PBRTParser) routeStatement(stmt *PBRTStatement) error {
	switch stmt.Type {
	case "LookAt":
		if err := parseLookAt(stmt, p.scene); err != nil {
			return fmt.Errorf("error parsing LookAt: %w", err)
		}
		return nil
	case "Translate":
		offset, err := parseFloats(stmt.Parameters["values"].Values, 3)
		if err != nil {
			return fmt.Errorf("error parsing Translate: %w", err)
		}
		p.state.Translation = p.state.Translation.Add(core.NewVec3(offset[0], offset[1], offset[2]))
		return nil
	case "Rotate", "Scale", "Transform", "ReverseOrientation":
		// A translated sphere is still a sphere; other transforms are not representable
		return fmt.Errorf("unsupported transform %s", stmt.Type)
	}

	if !p.inWorld {
		switch stmt.Type {
		case "Camera":
			p.scene.Camera = stmt
		case "Film":
			p.scene.Film = stmt
		case "Sampler":
			p.scene.Sampler = stmt
		case "Integrator":
			p.scene.Integrator = stmt
		default:
			return fmt.Errorf("%s is only allowed inside WorldBegin", stmt.Type)
		}
		return nil
	}

	switch stmt.Type {
	case "Material":
		p.scene.Materials = append(p.scene.Materials, *stmt)
		p.state.MaterialIndex = len(p.scene.Materials) - 1
	case "Shape":
		stmt.MaterialIndex = p.state.MaterialIndex
		stmt.Offset = p.state.Translation
		p.scene.Shapes = append(p.scene.Shapes, *stmt)
	case "LightSource", "AreaLightSource":
		return fmt.Errorf("unsupported statement %s: scenes are lit by the sky only", stmt.Type)
	default:
		return fmt.Errorf("%s is not allowed inside WorldBegin", stmt.Type)
	}
	return nil
}

// validateFilePath rejects obviously unusable scene paths
func validateFilePath(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	// Check for null bytes (could indicate path manipulation)
	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("invalid file path: null bytes not allowed")
	}

	// Check file extension (only allow .pbrt files)
	if !strings.HasSuffix(strings.ToLower(filename), ".pbrt") {
		return fmt.Errorf("invalid file type: only .pbrt files are allowed")
	}

	return nil
}

// parseFloats parses exactly n float values
func parseFloats(values []string, n int) ([]float64, error) {
	if len(values) != n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(values))
	}
	result := make([]float64, n)
	for i, v := range values {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number '%s': %w", v, err)
		}
		result[i] = f
	}
	return result, nil
}

// parseLookAt parses a LookAt statement into scene camera vectors
func parseLookAt(stmt *PBRTStatement, scene *PBRTScene) error {
	// eyex eyey eyez atx aty atz upx upy upz
	values, err := parseFloats(stmt.Parameters["values"].Values, 9)
	if err != nil {
		return err
	}

	scene.LookAt = &core.Vec3{X: values[0], Y: values[1], Z: values[2]}
	scene.LookAtTo = &core.Vec3{X: values[3], Y: values[4], Z: values[5]}
	scene.LookAtUp = &core.Vec3{X: values[6], Y: values[7], Z: values[8]}
	return nil
}

// tokenizePBRT tokenizes a PBRT line respecting quoted strings and brackets
func tokenizePBRT(line string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	inBrackets := false

	for _, char := range line {
		switch char {
		case '"':
			current.WriteRune(char)
			if !inBrackets {
				if inQuotes {
					// End of quoted string
					tokens = append(tokens, current.String())
					current.Reset()
				}
				inQuotes = !inQuotes
			}
		case '[':
			if !inQuotes {
				if current.Len() > 0 {
					tokens = append(tokens, current.String())
					current.Reset()
				}
				inBrackets = true
			}
			current.WriteRune(char)
		case ']':
			current.WriteRune(char)
			if !inQuotes && inBrackets {
				tokens = append(tokens, current.String())
				current.Reset()
				inBrackets = false
			}
		case ' ', '\t':
			if inQuotes || inBrackets {
				current.WriteRune(char)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(char)
		}
	}

	// Add final token if any
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// parseStatement parses a single PBRT statement line
func parseStatement(line string) (*PBRTStatement, error) {
	// LookAt and transforms take bare numbers instead of typed parameters
	for _, keyword := range []string{"LookAt", "Translate", "Rotate", "Scale", "Transform", "ReverseOrientation"} {
		if rest, ok := strings.CutPrefix(line, keyword); ok {
			return &PBRTStatement{
				Type: keyword,
				Parameters: map[string]PBRTParam{
					"values": {Type: "float", Values: strings.Fields(strings.Trim(rest, " []"))},
				},
			}, nil
		}
	}

	// Parse regular statements: Type "subtype" "param type" value
	parts := tokenizePBRT(line)
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid statement format")
	}

	stmt := &PBRTStatement{
		Type:       parts[0],
		Parameters: make(map[string]PBRTParam),
	}

	// Extract subtype (quoted string after type)
	if strings.HasPrefix(parts[1], "\"") && strings.HasSuffix(parts[1], "\"") {
		stmt.Subtype = strings.Trim(parts[1], "\"")
		parts = parts[2:]
	} else {
		parts = parts[1:]
	}

	// Parse parameters
	i := 0
	for i < len(parts) {
		if !strings.HasPrefix(parts[i], "\"") {
			i++
			continue
		}

		// Find parameter name and type
		paramParts := strings.Fields(strings.Trim(parts[i], "\""))
		i++
		if len(paramParts) != 2 {
			continue
		}

		// Parse parameter value(s)
		var values []string
		if i < len(parts) {
			if strings.HasPrefix(parts[i], "[") && strings.HasSuffix(parts[i], "]") {
				values = strings.Fields(strings.Trim(parts[i], "[] "))
			} else {
				values = []string{strings.Trim(parts[i], "\"")}
			}
			i++
		}

		stmt.Parameters[paramParts[1]] = PBRTParam{
			Type:   paramParts[0],
			Values: values,
		}
	}

	return stmt, nil
}

// GetFloatParam extracts a float parameter from a PBRT statement
func (stmt *PBRTStatement) GetFloatParam(name string) (float64, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 {
		return 0, false
	}
	val, err := strconv.ParseFloat(param.Values[0], 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// GetIntParam extracts an integer parameter from a PBRT statement
func (stmt *PBRTStatement) GetIntParam(name string) (int, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 {
		return 0, false
	}
	val, err := strconv.Atoi(param.Values[0])
	if err != nil {
		return 0, false
	}
	return val, true
}

// GetRGBParam extracts an RGB color parameter from a PBRT statement
func (stmt *PBRTStatement) GetRGBParam(name string) (*core.Vec3, bool) {
	param, exists := stmt.Parameters[name]
	if !exists {
		return nil, false
	}
	values, err := parseFloats(param.Values, 3)
	if err != nil {
		return nil, false
	}
	return &core.Vec3{X: values[0], Y: values[1], Z: values[2]}, true
}

// GetStringParam extracts a string parameter from a PBRT statement
func (stmt *PBRTStatement) GetStringParam(name string) (string, bool) {
	param, exists := stmt.Parameters[name]
	if !exists || len(param.Values) == 0 {
		return "", false
	}
	return param.Values[0], true
}

// isStatementStart determines if a line starts a new PBRT statement
func isStatementStart(line string) bool {
	statementTypes := []string{
		"Camera", "Film", "Sampler", "Integrator", "LookAt",
		"Material", "Shape", "LightSource", "AreaLightSource",
		"Translate", "Rotate", "Scale", "Transform",
		"ReverseOrientation", "Attribute",
	}

	for _, stmt := range statementTypes {
		if strings.HasPrefix(line, stmt+" ") || line == stmt {
			return true
		}
	}
	return false
}

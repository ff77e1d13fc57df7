package codegen

import (
	"fmt"
	"strings"

	"github.com/wirec-lang/wirec/internal/compiler/schema"
)

const luauHeader = `--!native
--!optimize 2
--!nocheck
--!nolint
-- %s generated by wirec (https://github.com/wirec-lang/wirec)
`

// bufferRuntime is the state shared by every codec: one growable outgoing
// buffer with its handle list, and the message being read
const bufferRuntime = `local outgoing_buff: buffer
local outgoing_used: number
local outgoing_size: number
local outgoing_apos: number
local outgoing_inst: { any }

local incoming_buff: buffer
local incoming_read: number
local incoming_inst: { any }
local incoming_ipos: number

local function alloc(len: number): number
	if outgoing_used + len > outgoing_size then
		while outgoing_used + len > outgoing_size do
			outgoing_size = outgoing_size * 2
		end

		local new_buff = buffer.create(outgoing_size)
		buffer.copy(new_buff, 0, outgoing_buff, 0, outgoing_used)
		outgoing_buff = new_buff
	end

	outgoing_apos = outgoing_used
	outgoing_used = outgoing_used + len

	return outgoing_apos
end

local function read(len: number): number
	local pos = incoming_read
	incoming_read = incoming_read + len

	return pos
end

local function save()
	return {
		buff = outgoing_buff,
		used = outgoing_used,
		size = outgoing_size,
		inst = outgoing_inst,
		count = #outgoing_inst,
	}
end

local function load(data)
	outgoing_buff = data.buff
	outgoing_used = data.used
	outgoing_size = data.size
	outgoing_inst = data.inst

	-- drop handles pushed by a write that failed after the last save
	for i = #outgoing_inst, data.count + 1, -1 do
		outgoing_inst[i] = nil
	end
end

local function load_empty()
	outgoing_buff = buffer.create(64)
	outgoing_used = 0
	outgoing_size = 64
	outgoing_inst = {}
end

local function load_incoming(buff: buffer, inst: { any }?)
	incoming_buff = buff
	incoming_read = 0
	incoming_inst = inst or {}
	incoming_ipos = 0
end

-- copies the written part of the outgoing buffer
local function take(): buffer
	local buff = buffer.create(outgoing_used)
	buffer.copy(buff, 0, outgoing_buff, 0, outgoing_used)

	return buff
end

load_empty()
`

const platformRuntime = `local function axis_angle(value: CFrame): Vector3
	local axis, angle = value:ToAxisAngle()

	return axis * angle
end

local function from_axis_angle(x: number, y: number, z: number, ax: number, ay: number, az: number): CFrame
	local axis = Vector3.new(ax, ay, az)
	local angle = axis.Magnitude
	if angle == 0 then
		return CFrame.new(x, y, z)
	end

	return CFrame.new(x, y, z) * CFrame.fromAxisAngle(axis.Unit, angle)
end

local function alignment_of(value: CFrame): number
	local index = table.find(CFrameSpecialCases, value.Rotation)
	assert(index, "invalid axis alignment")

	return index
end

local function from_alignment(index: number, x: number, y: number, z: number): CFrame
	local rotation = CFrameSpecialCases[index]
	assert(rotation, "invalid axis alignment")

	return rotation + Vector3.new(x, y, z)
end
`

// writeRuntime writes the header and the helpers every module shares
func (g *Generator) writeRuntime(side schema.Side) {
	g.buf.WriteString(fmt.Sprintf(luauHeader, side))
	g.writeLine("")
	g.buf.WriteString(bufferRuntime)
	g.writeLine("")
	g.writeAlignments()
	g.writeLine("")
	g.buf.WriteString(platformRuntime)
	g.writeLine("")
}

// writeAlignments writes the rotation table AlignedCFrame indexes into
func (g *Generator) writeAlignments() {
	g.writeLine("local CFrameSpecialCases = {")
	g.in()
	for _, a := range schema.Alignments {
		g.writeLine("CFrame.fromMatrix(Vector3.zero, %s, %s),", vector(a.Right), vector(a.Up))
	}
	g.out()
	g.writeLine("}")
}

func vector(a schema.Axis) string {
	return fmt.Sprintf("Vector3.new(%g, %g, %g)", a[0], a[1], a[2])
}

// writeTypes writes the exported type aliases and the codec of every
// declared type
func (g *Generator) writeTypes() {
	for _, td := range g.cfg.TypeDecls {
		g.writeLine("export type %s = %s", td.Name, luauType(td.Type))
	}
	if len(g.cfg.TypeDecls) > 0 {
		g.writeLine("")
	}

	g.writeLine("local types = {}")
	for _, c := range g.prog.Types {
		g.writeLine("")
		g.writeLine("function types.write_%s(value: %s)", c.Name, c.Name)
		g.in()
		g.writeOps(c.Ser)
		g.out()
		g.writeLine("end")
		g.writeLine("")
		g.writeLine("function types.read_%s()", c.Name)
		g.in()
		g.writeLine("local value;")
		g.writeOps(c.Des)
		g.writeLine("return value")
		g.out()
		g.writeLine("end")
	}
	g.writeLine("")
}

// payloadParam renders the value parameter of an event API function, or
// nothing for events without data
func payloadParam(ev *schema.EventDecl, name string) string {
	if ev.Data == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", name, luauType(ev.Data))
}

// args joins non-empty arguments
func args(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// writeRemotes declares the reliable and unreliable remotes
func (g *Generator) writeRemotes(side schema.Side) {
	g.writeLine(`local ReplicatedStorage = game:GetService("ReplicatedStorage")`)
	g.writeLine(`local RunService = game:GetService("RunService")`)
	if side == schema.Server {
		g.writeLine(`local Players = game:GetService("Players")`)
	}
	g.writeLine("")

	if side == schema.Server {
		g.writeLine("if RunService:IsClient() then")
		g.in()
		g.writeLine(`error("Cannot use the server module on the client!")`)
		g.out()
		g.writeLine("end")
		g.writeLine("")

		g.writeLine(`local remotes = ReplicatedStorage:FindFirstChild("WIREC")`)
		g.writeLine("if remotes == nil then")
		g.in()
		g.writeLine(`remotes = Instance.new("Folder")`)
		g.writeLine(`remotes.Name = "WIREC"`)
		g.writeLine("remotes.Parent = ReplicatedStorage")
		g.out()
		g.writeLine("end")
		g.writeLine("")
		g.writeServerRemote("reliable", "RemoteEvent", "WIREC_RELIABLE")
		g.writeServerRemote("unreliable", "UnreliableRemoteEvent", "WIREC_UNRELIABLE")
		return
	}

	g.writeLine("if RunService:IsServer() then")
	g.in()
	g.writeLine(`error("Cannot use the client module on the server!")`)
	g.out()
	g.writeLine("end")
	g.writeLine("")
	g.writeLine(`local remotes = ReplicatedStorage:WaitForChild("WIREC")`)
	g.writeLine(`local reliable = remotes:WaitForChild("WIREC_RELIABLE")`)
	g.writeLine(`local unreliable = remotes:WaitForChild("WIREC_UNRELIABLE")`)
	g.writeLine("")
}

func (g *Generator) writeServerRemote(local, class, name string) {
	g.writeLine("local %s = remotes:FindFirstChild(%q)", local, name)
	g.writeLine("if %s == nil then", local)
	g.in()
	g.writeLine("%s = Instance.new(%q)", local, class)
	g.writeLine("%s.Name = %q", local, name)
	g.writeLine("%s.Parent = remotes", local)
	g.out()
	g.writeLine("end")
	g.writeLine("")
}

// writeCallbackLists declares the listener table, with an empty list for
// every incoming event that takes many listeners
func (g *Generator) writeCallbackLists(incoming []*schema.EventDecl) {
	g.writeLine("local events = table.create(%d)", len(g.cfg.EventDecls))
	for _, ev := range incoming {
		if !ev.Call.Single() {
			g.writeLine("events[%d] = {}", ev.ID)
		}
	}
	g.writeLine("")
}

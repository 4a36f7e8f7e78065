package shader

import "fmt"

// spheresBody ray traces a small set of emissive spheres over a checkered
// ground plane. %s is replaced with the sphere table.
const spheresBody = `
struct Sphere { vec3 center; float radius; vec3 albedo; vec3 emission; };

%s

const vec3 LIGHT_DIR = normalize(vec3(0.4, 1.0, 0.3));
const vec3 SKY = vec3(0.05, 0.06, 0.09);

float hitSphere(Sphere s, vec3 ro, vec3 rd) {
    vec3 oc = ro - s.center;
    float b = dot(oc, rd);
    float c = dot(oc, oc) - s.radius * s.radius;
    float h = b * b - c;
    if (h < 0.0) return -1.0;
    return -b - sqrt(h);
}

void main() {
    vec2 ndc = frag_uv * 2.0 - 1.0;
    vec4 near = inverseViewProjection * vec4(ndc, -1.0, 1.0);
    vec4 far = inverseViewProjection * vec4(ndc, 1.0, 1.0);
    vec3 ro = cameraPosition;
    vec3 rd = normalize(far.xyz / far.w - near.xyz / near.w);

    float best = 1e20;
    vec3 color = SKY;
    for (int i = 0; i < SPHERE_COUNT; i++) {
        float t = hitSphere(SPHERES[i], ro, rd);
        if (t > 0.0 && t < best) {
            best = t;
            vec3 n = normalize(ro + rd * t - SPHERES[i].center);
            float diffuse = max(dot(n, LIGHT_DIR), 0.0);
            color = SPHERES[i].albedo * (0.1 + 0.9 * diffuse) + SPHERES[i].emission;
        }
    }
    if (rd.y < 0.0) {
        float t = -ro.y / rd.y;
        if (t > 0.0 && t < best) {
            vec3 p = ro + rd * t;
            float checker = mod(floor(p.x) + floor(p.z), 2.0);
            color = vec3(0.25 + 0.35 * checker) * (0.1 + 0.9 * LIGHT_DIR.y);
        }
    }
    fragColor = vec4(color, 1.0);
}
`

// SphereDecl is one row of the sphere table.
type SphereDecl struct {
	Center   [3]float32
	Radius   float32
	Albedo   [3]float32
	Emission [3]float32
}

// SpheresBody returns the fragment body for the given spheres.
func SpheresBody(spheres []SphereDecl) string {
	table := fmt.Sprintf("#define SPHERE_COUNT %d\nconst Sphere SPHERES[SPHERE_COUNT] = Sphere[](\n", len(spheres))
	for i, s := range spheres {
		sep := ","
		if i == len(spheres)-1 {
			sep = ""
		}
		table += fmt.Sprintf("    Sphere(%s, %s, %s, %s)%s\n",
			vec3(s.Center), float(s.Radius), vec3(s.Albedo), vec3(s.Emission), sep)
	}
	table += ");"
	return fmt.Sprintf(spheresBody, table)
}

func float(f float32) string {
	return fmt.Sprintf("%#g", f)
}

func vec3(v [3]float32) string {
	return fmt.Sprintf("vec3(%s, %s, %s)", float(v[0]), float(v[1]), float(v[2]))
}

// Fragment bodies of the built-in effects. Every effect reads the previous
// pass from sourceTexture.

package shader

import "fmt"

const CopyBody = `
void main() { fragColor = texture(sourceTexture, frag_uv); }
`

const BrightFilterBody = `
void main() {
    vec4 color = texture(sourceTexture, frag_uv);
    float brightness = dot(color.rgb, vec3(0.2126, 0.7152, 0.0722));
    if (brightness > threshold) {
        fragColor = color;
    } else {
        fragColor = vec4(0.0, 0.0, 0.0, 1.0);
    }
}
`

// blurBody is shared by both separable directions; %s is the step axis.
const blurBody = `
void main() {
    vec2 pixel = 1.0 / texSize;
    int radius = int(blurRadius);
    float sigma = max(blurRadius / 3.0, 0.0001);
    vec4 sum = vec4(0.0);
    float total = 0.0;
    for (int k = -radius; k <= radius; k++) {
        float w = exp(-float(k * k) / (2.0 * sigma * sigma));
        sum += w * texture(sourceTexture, frag_uv + %s);
        total += w;
    }
    fragColor = sum / total;
}
`

var (
	HorizontalBlurBody = fmt.Sprintf(blurBody, "vec2(float(k) * pixel.x, 0.0)")
	VerticalBlurBody   = fmt.Sprintf(blurBody, "vec2(0.0, float(k) * pixel.y)")
)

const Blur2DBody = `
void main() {
    vec2 pixel = 1.0 / texSize;
    int radius = int(blurRadius);
    float sigma = max(blurRadius / 3.0, 0.0001);
    vec4 sum = vec4(0.0);
    float total = 0.0;
    for (int j = -radius; j <= radius; j++) {
        for (int i = -radius; i <= radius; i++) {
            float w = exp(-float(i * i + j * j) / (2.0 * sigma * sigma));
            sum += w * texture(sourceTexture, frag_uv + vec2(float(i), float(j)) * pixel);
            total += w;
        }
    }
    fragColor = sum / total;
}
`

const AdditiveBlendBody = `
void main() {
    vec4 original = texture(mainScene, frag_uv);
    vec4 bloom = texture(sourceTexture, frag_uv);
    fragColor = original * originalStrength + bloom * blendStrength;
}
`

const TintBody = `
void main() {
    vec4 color = texture(sourceTexture, frag_uv);
    float gray = (color.r + color.g + color.b) / 3.0;
    fragColor = vec4(gray * tintColor, color.a);
}
`

const VignetteBody = `
void main() {
    vec4 color = texture(sourceTexture, frag_uv);
    float d = length(frag_uv * 2.0 - 1.0);
    float t = clamp((d - dimStart) / max(dimEnd - dimStart, 0.0001), 0.0, 1.0);
    fragColor = vec4(mix(color.rgb, dimColor, t), color.a);
}
`

const PixelateBody = `
void main() {
    vec2 blocks = resolution / pixelSize;
    vec2 uv = floor(frag_uv * blocks) / blocks + 0.5 / resolution;
    fragColor = texture(sourceTexture, uv);
}
`

const InvertBody = `
void main() {
    vec4 color = texture(sourceTexture, frag_uv);
    fragColor = vec4(1.0 - color.rgb, color.a);
}
`

const ColorReduceBody = `
void main() {
    vec4 color = texture(sourceTexture, frag_uv);
    fragColor = vec4(round(color.rgb * levels) / levels, color.a);
}
`
